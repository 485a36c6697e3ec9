package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocktruck/doc-validator/internal/profile"
)

func testProfile(t *testing.T) *profile.DocumentTypeProfile {
	t.Helper()
	p, err := profile.NewRegistry().ProfileFor(profile.VariantRazonSocial)
	require.NoError(t, err)
	return p
}

func TestBuildExtractionSchemaShape(t *testing.T) {
	p := testProfile(t)
	schema := BuildExtractionSchema(p)

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "matched_variant")
	for _, f := range p.Fields {
		assert.Contains(t, props, f.Name)
	}

	required, ok := schema["required"].([]string)
	require.True(t, ok)
	assert.Contains(t, required, "matched_variant")
	assert.Equal(t, false, schema["additionalProperties"])
}

func TestValidateAgainstSchemaAcceptsGoodReply(t *testing.T) {
	p := testProfile(t)
	schema := BuildExtractionSchema(p)

	reply := map[string]any{
		"matched_variant":    true,
		"rut_empleador":      "76123456-7",
		"razon_social":       "CONSTRUCTORA LOS ANDES SPA",
		"codigo_certificado": "A1B2C3D4E5F6G7H8",
		"fecha_emision":      "2024-01-15",
		"multas_pendientes":  "NO REGISTRA",
		"deuda_previsional":  "NO REGISTRA",
	}
	data, err := json.Marshal(reply)
	require.NoError(t, err)

	assert.NoError(t, ValidateAgainstSchema(schema, data))
}

func TestValidateAgainstSchemaRejects(t *testing.T) {
	p := testProfile(t)
	schema := BuildExtractionSchema(p)

	cases := []struct {
		name string
		data string
	}{
		{"missing matched_variant", `{"rut_empleador":"76123456-7","razon_social":"X","codigo_certificado":"C1","multas_pendientes":"NO REGISTRA","deuda_previsional":"NO REGISTRA"}`},
		{"wrong flag type", `{"matched_variant":"yes","rut_empleador":"76123456-7","razon_social":"X","codigo_certificado":"C1","multas_pendientes":"NO REGISTRA","deuda_previsional":"NO REGISTRA"}`},
		{"unknown key", `{"matched_variant":true,"rut_empleador":"76123456-7","razon_social":"X","codigo_certificado":"C1","multas_pendientes":"NO REGISTRA","deuda_previsional":"NO REGISTRA","surprise":"v"}`},
		{"empty required field", `{"matched_variant":true,"rut_empleador":"","razon_social":"X","codigo_certificado":"C1","multas_pendientes":"NO REGISTRA","deuda_previsional":"NO REGISTRA"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, ValidateAgainstSchema(schema, []byte(tc.data)))
		})
	}
}

func TestSanitizeReplyCleansModelNoise(t *testing.T) {
	p := testProfile(t)

	raw := []byte(`{
		"matched_variant": true,
		"rut_empleador": "  76123456-7  ",
		"razon_social": "CONSTRUCTORA LOS ANDES SPA",
		"codigo_certificado": 12345678,
		"fecha_emision": null,
		"multas_pendientes": "NO REGISTRA",
		"deuda_previsional": "NO REGISTRA",
		"extra_commentary": "the document looks fine"
	}`)

	cleaned, dropped, err := SanitizeReply(p, raw)
	require.NoError(t, err)
	assert.NotEmpty(t, dropped)

	var m map[string]any
	require.NoError(t, json.Unmarshal(cleaned, &m))
	assert.Equal(t, "76123456-7", m["rut_empleador"])
	assert.Equal(t, "12345678", m["codigo_certificado"])
	assert.NotContains(t, m, "fecha_emision")
	assert.NotContains(t, m, "extra_commentary")

	schema := BuildExtractionSchema(p)
	assert.NoError(t, ValidateAgainstSchema(schema, cleaned))
}

func TestDecodeResult(t *testing.T) {
	res, err := decodeResult([]byte(`{"matched_variant":false,"rut_empleador":"1-9"}`))
	require.NoError(t, err)
	assert.False(t, res.MatchedVariant)
	assert.Equal(t, "1-9", res.Fields["rut_empleador"])
}
