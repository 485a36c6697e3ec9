package profile

// Identity concept aliases accepted in caller-supplied data. Callers spell
// these inconsistently across integrations, hence the ordered probe.
var (
	rutAliases         = []string{"rut", "rut_empleador", "rut_empresa", "tax_id", "national_id"}
	razonSocialAliases = []string{"razon_social", "company_name", "nombre_empresa", "business_name"}
	nombreAliases      = []string{"nombre", "nombre_completo", "full_name", "name"}
)

func razonSocialProfile() *DocumentTypeProfile {
	return &DocumentTypeProfile{
		Variant:     VariantRazonSocial,
		DisplayName: "Certificado F30 - Antecedentes Laborales y Previsionales - Razón Social",
		Fields: []FieldDef{
			{Name: "rut_empleador", Type: "string", Required: true, Description: "RUT of the certified employer"},
			{Name: "razon_social", Type: "string", Required: true, Description: "registered company name"},
			{Name: "codigo_certificado", Type: "string", Required: true, Description: "verification code printed on the certificate"},
			{Name: "fecha_emision", Type: "string", Required: false, Description: "issue date as printed"},
			{Name: "multas_pendientes", Type: "string", Required: true, Description: "pending labor fines section"},
			{Name: "deuda_previsional", Type: "string", Required: true, Description: "social security debt section"},
		},
		Rules: []ValidationRule{
			{
				Kind:        RuleIdentityMatch,
				Name:        "rut_coincide",
				Description: "El RUT del empleador en el certificado debe coincidir con el RUT informado",
				Field:       "rut_empleador",
				Aliases:     rutAliases,
			},
			{
				Kind:        RuleTextMatch,
				Name:        "razon_social_coincide",
				Description: "La razón social del certificado debe coincidir con la informada",
				Field:       "razon_social",
				Aliases:     razonSocialAliases,
				Threshold:   0.85,
			},
			{
				Kind:        RuleValueMatch,
				Name:        "sin_multas_pendientes",
				Description: "El certificado no debe registrar multas pendientes",
				Field:       "multas_pendientes",
				Expected:    "NO REGISTRA",
				Operator:    OpContainsCaseInsensitive,
			},
			{
				Kind:        RuleValueMatch,
				Name:        "sin_deuda_previsional",
				Description: "El certificado no debe registrar deuda previsional",
				Field:       "deuda_previsional",
				Expected:    "NO REGISTRA",
				Operator:    OpContainsCaseInsensitive,
			},
		},
		SubmissionFields: []string{"codigo_certificado"},
		RequiredConcepts: [][]string{rutAliases},
	}
}

func personaNaturalProfile() *DocumentTypeProfile {
	return &DocumentTypeProfile{
		Variant:     VariantPersonaNatural,
		DisplayName: "Certificado F30 - Antecedentes Laborales y Previsionales - Persona Natural",
		Fields: []FieldDef{
			{Name: "rut_empleador", Type: "string", Required: true, Description: "RUT of the certified employer"},
			{Name: "nombre_empleador", Type: "string", Required: true, Description: "employer full name"},
			{Name: "folio_oficina", Type: "string", Required: true, Description: "issuing office code of the folio"},
			{Name: "folio_anio", Type: "string", Required: true, Description: "folio year"},
			{Name: "folio_numero_consecutivo", Type: "string", Required: true, Description: "folio sequence number"},
			{Name: "codigo_verificacion", Type: "string", Required: true, Description: "alphanumeric verification code"},
			{Name: "multas_pendientes", Type: "string", Required: true, Description: "pending labor fines section"},
			{Name: "deuda_previsional", Type: "string", Required: true, Description: "social security debt section"},
		},
		Rules: []ValidationRule{
			{
				Kind:        RuleIdentityMatch,
				Name:        "rut_coincide",
				Description: "El RUT del empleador en el certificado debe coincidir con el RUT informado",
				Field:       "rut_empleador",
				Aliases:     rutAliases,
			},
			{
				Kind:        RuleTextMatch,
				Name:        "nombre_coincide",
				Description: "El nombre del empleador debe coincidir con el informado",
				Field:       "nombre_empleador",
				Aliases:     nombreAliases,
				Threshold:   0.85,
			},
			{
				Kind:        RuleValueMatch,
				Name:        "sin_multas_pendientes",
				Description: "El certificado no debe registrar multas pendientes",
				Field:       "multas_pendientes",
				Expected:    "NO REGISTRA",
				Operator:    OpContainsCaseInsensitive,
			},
			{
				Kind:        RuleValueMatch,
				Name:        "sin_deuda_previsional",
				Description: "El certificado no debe registrar deuda previsional",
				Field:       "deuda_previsional",
				Expected:    "NO REGISTRA",
				Operator:    OpContainsCaseInsensitive,
			},
		},
		SubmissionFields: []string{"folio_oficina", "folio_anio", "folio_numero_consecutivo", "codigo_verificacion"},
		RequiredConcepts: [][]string{rutAliases},
	}
}
