package document_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geniass/pricewatch/pkg/document"
)

const productHTML = `<!DOCTYPE html>
<html>
<head><title>GPU</title><script>var price = "$1.00";</script></head>
<body>
  <div id="centerCol" class="col  col">
    <span class="a-price priceToPay" data-pw-rect="10,20,100,30">
      <span class="a-offscreen">$859.00</span>
    </span>
    <p>List Price: <s>$999.00</s></p>
  </div>
</body>
</html>`

func TestParse_BuildsTree(t *testing.T) {
	t.Parallel()

	doc, err := document.ParseString(productHTML, document.WithURL("https://example.com/p/1"), document.WithViewport(1280, 800))
	require.NoError(t, err)

	require.NotNil(t, doc.Root)
	assert.Equal(t, "html", doc.Root.Tag)
	assert.Equal(t, "https://example.com/p/1", doc.URL)
	require.NotNil(t, doc.Viewport)
	assert.Equal(t, 1280.0, doc.Viewport.Width)

	col := doc.First(doc.Root, document.SelectorList{document.MustCompile("#centerCol")})
	require.NotNil(t, col)
	assert.Equal(t, "centerCol", col.ID)
	assert.Equal(t, []string{"col"}, col.Classes)
	assert.Equal(t, "$859.00 List Price: $999.00", col.TextContent)

	// script bodies are not page text
	assert.NotContains(t, doc.Text(), "$1.00")
}

func TestParse_ReadsGeometry(t *testing.T) {
	t.Parallel()

	doc, err := document.ParseString(productHTML)
	require.NoError(t, err)

	nodes := doc.Select(doc.Root, document.MustCompile(".priceToPay"))
	require.Len(t, nodes, 1)
	require.NotNil(t, nodes[0].Rect)
	x, y := nodes[0].Rect.Center()
	assert.Equal(t, 60.0, x)
	assert.Equal(t, 35.0, y)
}

func TestParentLinksAreConsistent(t *testing.T) {
	t.Parallel()

	doc, err := document.ParseString(productHTML)
	require.NoError(t, err)

	var walk func(n *document.Node)
	walk = func(n *document.Node) {
		for _, c := range n.Children {
			assert.Same(t, n, c.Parent())
			walk(c)
		}
	}
	walk(doc.Root)
	assert.Nil(t, doc.Root.Parent())
}

func TestNew_HandBuiltTree(t *testing.T) {
	t.Parallel()

	offscreen := document.Element("span", map[string]string{"class": "a-offscreen"}).WithText("$449.99")
	whole := document.Element("span", map[string]string{"class": "a-price-whole"}).WithText("449.")
	fraction := document.Element("span", map[string]string{"class": "a-price-fraction"}).WithText("99")
	price := document.Element("span", map[string]string{"class": "a-price", "id": "p"}, offscreen, whole, fraction)
	root := document.Element("div", nil, price)

	doc := document.New(root)

	assert.Equal(t, 5, doc.Len())
	assert.Same(t, price, offscreen.Parent())
	assert.Equal(t, "$449.99 449. 99", price.TextContent)
	assert.Equal(t, []*document.Node{fraction}, whole.NextSiblings())
	assert.Equal(t, []*document.Node{price, root}, offscreen.Ancestors(0))
	assert.Equal(t, []*document.Node{price}, offscreen.Ancestors(1))

	nodes := doc.Select(root, document.MustCompile("#p .a-offscreen"))
	assert.Equal(t, []*document.Node{offscreen}, nodes)
}

func TestLen_IgnoresScaffolding(t *testing.T) {
	t.Parallel()

	doc, err := document.ParseString(``)
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Len())
	assert.Equal(t, "", doc.Text())

	var missing *document.Document
	assert.Equal(t, 0, missing.Len())
	assert.Nil(t, missing.Select(nil, document.MustCompile("div")))
}

func TestCompile_RejectsInvalidSelector(t *testing.T) {
	t.Parallel()

	_, err := document.Compile("div[")
	require.Error(t, err)

	_, err = document.CompileList([]string{".ok", "##bad"})
	require.Error(t, err)
}
