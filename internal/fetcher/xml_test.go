package fetcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name  string `xml:"name"`
	Value string `xml:"value"`
}

func collectXML(t *testing.T, doc string) ([]item, error) {
	t.Helper()
	items, errCh := StreamXML[item](context.Background(), strings.NewReader(doc), "item")
	var got []item
	for it := range items {
		got = append(got, it)
	}
	return got, <-errCh
}

func TestStreamXML(t *testing.T) {
	doc := `<root>
	  <item><name>a</name><value>1</value></item>
	  <other>ignored</other>
	  <item><name>b</name><value>2</value></item>
	</root>`

	got, err := collectXML(t, doc)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, item{Name: "a", Value: "1"}, got[0])
	assert.Equal(t, item{Name: "b", Value: "2"}, got[1])
}

func TestStreamXMLNamespaced(t *testing.T) {
	doc := `<root xmlns="http://example.org/ns"><item><name>a</name></item></root>`
	got, err := collectXML(t, doc)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Name)
}

func TestStreamXMLMalformed(t *testing.T) {
	got, err := collectXML(t, `<root><item><name>a</name></item><bro`)
	require.Error(t, err)
	assert.Len(t, got, 1, "elements before the syntax error still stream")
}

func TestStreamXMLCharsetDeclaration(t *testing.T) {
	doc := `<?xml version="1.0" encoding="ISO-8859-1"?><root><item><name>a</name></item></root>`
	got, err := collectXML(t, doc)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestStreamXMLCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items, errCh := StreamXML[item](ctx, strings.NewReader("<root><item/></root>"), "item")
	for range items {
	}
	require.Error(t, <-errCh)
}
