package profile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocktruck/doc-validator/internal/common"
)

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("razon_social")
	require.NoError(t, err)
	assert.Equal(t, VariantRazonSocial, v)

	v, err = ParseVariant("persona_natural")
	require.NoError(t, err)
	assert.Equal(t, VariantPersonaNatural, v)

	_, err = ParseVariant("sociedad_anonima")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnknownVariant))
}

func TestRegistryProfiles(t *testing.T) {
	reg := NewRegistry()

	rs, err := reg.ProfileFor(VariantRazonSocial)
	require.NoError(t, err)
	assert.Equal(t, []string{"codigo_certificado"}, rs.SubmissionFields)

	pn, err := reg.ProfileFor(VariantPersonaNatural)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"folio_oficina", "folio_anio", "folio_numero_consecutivo", "codigo_verificacion",
	}, pn.SubmissionFields)

	assert.Len(t, reg.Variants(), 2)

	_, err = reg.ProfileFor(Variant("bogus"))
	assert.True(t, errors.Is(err, common.ErrUnknownVariant))
}

func TestFirstPresentProbesInOrder(t *testing.T) {
	identity := map[string]string{
		"tax_id":      "11111111-1",
		"rut_empresa": "22222222-2",
	}
	aliases := []string{"rut", "rut_empleador", "rut_empresa", "tax_id", "national_id"}

	v, ok := FirstPresent(aliases, identity)
	require.True(t, ok)
	assert.Equal(t, "22222222-2", v, "earlier alias wins")

	_, ok = FirstPresent([]string{"rut"}, map[string]string{"rut": "   "})
	assert.False(t, ok, "whitespace-only values do not count as present")

	_, ok = FirstPresent(aliases, nil)
	assert.False(t, ok)
}
