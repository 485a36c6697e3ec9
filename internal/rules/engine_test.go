package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocktruck/doc-validator/internal/profile"
)

func razonSocialProfile(t *testing.T) *profile.DocumentTypeProfile {
	t.Helper()
	reg := profile.NewRegistry()
	p, err := reg.ProfileFor(profile.VariantRazonSocial)
	require.NoError(t, err)
	return p
}

func TestEvaluateAllRulesPass(t *testing.T) {
	engine := NewEngine(nil)
	p := razonSocialProfile(t)

	extracted := map[string]string{
		"rut_empleador":     "76.123.456-7",
		"razon_social":      "CONSTRUCTORA LOS ANDES SPA",
		"multas_pendientes": "-- NO REGISTRA --",
		"deuda_previsional": "NO REGISTRA",
	}
	identity := map[string]string{
		"rut":          "76123456-7",
		"razon_social": "Constructora Los Andes SpA",
	}

	results, rejections := engine.Evaluate(p, extracted, identity)

	require.Len(t, results, len(p.Rules))
	for _, r := range results {
		assert.True(t, r.Passed, "rule %s: %s", r.RuleName, r.Message)
	}
	assert.Empty(t, rejections)
}

func TestEvaluateDoesNotShortCircuit(t *testing.T) {
	engine := NewEngine(nil)
	p := razonSocialProfile(t)

	// RUT mismatch and pending fines: both rules must be reported.
	extracted := map[string]string{
		"rut_empleador":     "12345678-9",
		"razon_social":      "CONSTRUCTORA LOS ANDES SPA",
		"multas_pendientes": "2 multas por $1.500.000",
		"deuda_previsional": "NO REGISTRA",
	}
	identity := map[string]string{
		"rut":          "98765432-1",
		"razon_social": "Constructora Los Andes SpA",
	}

	results, rejections := engine.Evaluate(p, extracted, identity)

	require.Len(t, results, len(p.Rules))
	require.Len(t, rejections, 2)
	assert.Equal(t, "rut_coincide", rejections[0].Rule)
	assert.Equal(t, "sin_multas_pendientes", rejections[1].Rule)
}

func TestEvaluateMissingIdentityConcept(t *testing.T) {
	engine := NewEngine(nil)
	p := razonSocialProfile(t)

	extracted := map[string]string{
		"rut_empleador":     "76123456-7",
		"razon_social":      "CONSTRUCTORA LOS ANDES SPA",
		"multas_pendientes": "NO REGISTRA",
		"deuda_previsional": "NO REGISTRA",
	}
	// No RUT under any accepted alias: the rule fails, nothing panics.
	identity := map[string]string{
		"razon_social": "Constructora Los Andes SpA",
	}

	results, rejections := engine.Evaluate(p, extracted, identity)

	require.Len(t, results, len(p.Rules))
	assert.False(t, results[0].Passed)
	assert.Contains(t, results[0].Message, "missing identity concept")
	require.Len(t, rejections, 1)
}

func TestEvaluateIdentityAliasProbeOrder(t *testing.T) {
	engine := NewEngine(nil)
	p := razonSocialProfile(t)

	extracted := map[string]string{
		"rut_empleador":     "76123456-7",
		"razon_social":      "CONSTRUCTORA LOS ANDES SPA",
		"multas_pendientes": "NO REGISTRA",
		"deuda_previsional": "NO REGISTRA",
	}
	// The canonical alias wins over later ones even when both are present.
	identity := map[string]string{
		"rut":          "76.123.456-7",
		"rut_empresa":  "11111111-1",
		"razon_social": "Constructora Los Andes SpA",
	}

	results, _ := engine.Evaluate(p, extracted, identity)
	assert.True(t, results[0].Passed, results[0].Message)
}

func TestEvaluateTextMatchBelowThreshold(t *testing.T) {
	engine := NewEngine(nil)
	p := razonSocialProfile(t)

	extracted := map[string]string{
		"rut_empleador":     "76123456-7",
		"razon_social":      "PANADERIA SAN MARTIN LTDA",
		"multas_pendientes": "NO REGISTRA",
		"deuda_previsional": "NO REGISTRA",
	}
	identity := map[string]string{
		"rut":          "76123456-7",
		"razon_social": "Transportes del Sur SpA",
	}

	results, rejections := engine.Evaluate(p, extracted, identity)

	var textResult *struct {
		passed  bool
		message string
	}
	for _, r := range results {
		if r.RuleName == "razon_social_coincide" {
			textResult = &struct {
				passed  bool
				message string
			}{r.Passed, r.Message}
		}
	}
	require.NotNil(t, textResult)
	assert.False(t, textResult.passed)
	require.Len(t, rejections, 1)
	assert.Contains(t, rejections[0].Details, "similarity")
}

func TestEvaluateValueMatchContains(t *testing.T) {
	engine := NewEngine(nil)
	p := razonSocialProfile(t)

	cases := []struct {
		name  string
		value string
		want  bool
	}{
		{"exact", "NO REGISTRA", true},
		{"decorated", "-- NO REGISTRA --", true},
		{"lowercase", "no registra", true},
		{"fines present", "Registra 3 multas", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			extracted := map[string]string{
				"rut_empleador":     "76123456-7",
				"razon_social":      "CONSTRUCTORA LOS ANDES SPA",
				"multas_pendientes": tc.value,
				"deuda_previsional": "NO REGISTRA",
			}
			identity := map[string]string{
				"rut":          "76123456-7",
				"razon_social": "Constructora Los Andes SpA",
			}
			results, _ := engine.Evaluate(p, extracted, identity)
			for _, r := range results {
				if r.RuleName == "sin_multas_pendientes" {
					assert.Equal(t, tc.want, r.Passed, r.Message)
				}
			}
		})
	}
}

func TestSimilarityProperties(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("Constructora Los Andes", "constructora  los andes"))
	assert.Equal(t, Similarity("abc def", "def abc"), 1.0, "token order must not matter")
	assert.Equal(t, Similarity("empresa uno", "empresa dos"), Similarity("empresa dos", "empresa uno"))
	assert.Equal(t, 0.0, Similarity("", "anything"))
	assert.Greater(t, Similarity("Transportes del Sur SpA", "Transportes del Sur S.A."), 0.7)
}

func TestNormalizeRUT(t *testing.T) {
	assert.Equal(t, "761234567", NormalizeRUT("76.123.456-7"))
	assert.Equal(t, "12345678K", NormalizeRUT("12.345.678-k"))
	assert.Equal(t, NormalizeRUT("76123456-7"), NormalizeRUT(" 76.123.456-7 "))
}
