package lipidmaps

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSDF = `LMFA01010001
  LIPDMAPS

 10  9  0  0  0  0  0  0  0  0999 V2000
M  END
> <LM_ID>
LMFA01010001

> <NAME>
Palmitic acid

> <INCHI_KEY>
IPCSVZSSVZVIGE-UHFFFAOYSA-N

> <FORMULA>
C16H32O2

$$$$
LMFA01010002
  LIPDMAPS

M  END
> <LM_ID>
LMFA01010002

> <SYSTEMATIC_NAME>
octadecanoic
acid

$$$$
`

func TestScanSDF(t *testing.T) {
	var got []map[string]string
	err := ScanSDF(strings.NewReader(sampleSDF), func(props map[string]string) {
		got = append(got, props)
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "LMFA01010001", got[0]["LM_ID"])
	assert.Equal(t, "Palmitic acid", got[0]["NAME"])
	assert.Equal(t, "IPCSVZSSVZVIGE-UHFFFAOYSA-N", got[0]["INCHI_KEY"])
	assert.Equal(t, "C16H32O2", got[0]["FORMULA"])

	// Multi-line property values join with newlines.
	assert.Equal(t, "octadecanoic\nacid", got[1]["SYSTEMATIC_NAME"])
	_, ok := got[1]["NAME"]
	assert.False(t, ok)
}

func TestScanSDFTrailingRecordWithoutSeparator(t *testing.T) {
	in := "> <LM_ID>\nLMGP00000001\n"
	var got []map[string]string
	require.NoError(t, ScanSDF(strings.NewReader(in), func(props map[string]string) {
		got = append(got, props)
	}))
	require.Len(t, got, 1)
	assert.Equal(t, "LMGP00000001", got[0]["LM_ID"])
}

func TestScanSDFEmptyInput(t *testing.T) {
	var calls int
	require.NoError(t, ScanSDF(strings.NewReader(""), func(map[string]string) { calls++ }))
	assert.Zero(t, calls)
}

func TestParseTag(t *testing.T) {
	assert.Equal(t, "LM_ID", parseTag("> <LM_ID>"))
	assert.Equal(t, "INCHI_KEY", parseTag(">  <INCHI_KEY>  "))
	assert.Equal(t, "", parseTag("> no brackets"))
}
