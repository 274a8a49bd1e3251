package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/geniass/pricewatch/pkg/document"
	"github.com/geniass/pricewatch/pkg/resolver"
)

var markdownTemplate = template.Must(template.New("markdownTemplate").Funcs(template.FuncMap{
	"price": func(d *decimal.Decimal) string {
		if d == nil {
			return "-"
		}
		return d.StringFixed(2)
	},
	"percent": func(d decimal.Decimal) string {
		return d.Mul(decimal.NewFromInt(100)).StringFixed(0) + "%"
	},
	"join": strings.Join,
}).Parse(
	`
# pricewatch
## {{ .Name }}
{{ if ne .URL "" -}}
[Product Page]({{ .URL }})
{{ end }}
{{ with .Result -}}
{{ if .Success -}}
Price: {{ price .CurrentPrice }} ({{ .PriceSource }})
{{- else -}}
No price found: {{ .Failure }}
{{- end }}
{{ if .IsOnSale }}
Was: {{ price .BasePrice }}

Percentage off: {{ percent .Discount }}
{{ end }}
Availability: {{ .Availability }}{{ with .AvailabilityReasons }} ({{ join . ", " }}){{ end }}
{{- end }}
`,
))

type markdownContext struct {
	Name   string
	URL    string
	Result resolver.Result
}

func newResolveCommand(a *app) *cobra.Command {
	var (
		category string
		format   string
		pageURL  string
	)

	cmd := &cobra.Command{
		Use:   "resolve <page.html>",
		Short: "Resolve price and availability of a saved product page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "markdown" {
				return fmt.Errorf("unknown format %q", format)
			}

			r, err := a.newResolver()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			doc, err := document.Parse(f, document.WithURL(pageURL))
			if err != nil {
				return err
			}
			res := r.Resolve(doc, category)

			if format == "markdown" {
				return markdownTemplate.Execute(cmd.OutOrStdout(), markdownContext{
					Name:   filepath.Base(args[0]),
					URL:    pageURL,
					Result: res,
				})
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(res)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "product category, selects the plausible price range")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or markdown")
	cmd.Flags().StringVar(&pageURL, "url", "", "URL the page was saved from")
	return cmd
}
