package reconcile

import (
	"encoding/json"
	"time"

	"github.com/vnbizdata/collector-cli/internal/model"
)

// Precedence names which source wins a contested representative field
// when both sources carry a value.
type Precedence string

const (
	PrecedenceSecondary Precedence = "secondary"
	PrecedencePrimary   Precedence = "primary"
)

// Strategy tunes the merge. The profile site specializes in
// representative and contact data, so it wins those fields by default;
// registration facts always stay with the registry.
type Strategy struct {
	RepresentativePrecedence Precedence
}

// DefaultStrategy returns the standard merge strategy.
func DefaultStrategy() Strategy {
	return Strategy{RepresentativePrecedence: PrecedenceSecondary}
}

// Merge combines a registry base record with an optional supplementary
// profile record into one canonical record. Pure function: the result
// depends only on its inputs and the strategy.
//
// Registration facts (address, province, license) always come from the
// base record. Representative name and phone are merged independently
// under the strategy's precedence, each tagged with its provenance. The
// supplementary address, when present, is retained separately and never
// overwrites the canonical address. Both raw payloads are attached
// unmodified.
func (s Strategy) Merge(base model.BaseRecord, supp *model.SupplementaryRecord) model.CanonicalRecord {
	now := time.Now().UTC()
	rec := model.CanonicalRecord{
		TaxID:          base.TaxID,
		Name:           base.Name,
		Address:        base.Address,
		Representative: base.Representative,
		Phone:          base.Phone,
		LicenseNumber:  base.LicenseNumber,
		LicenseDate:    base.LicenseDate,
		Province:       base.Province,
		Status:         base.Status,
		Industry:       base.Industry,
		DataSource:     model.DataSourcePrimary,
		RawPrimary:     marshalRaw(base.Raw),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if supp == nil {
		rec.RepresentativeSource = provenanceOf(base.Representative, "")
		rec.PhoneSource = provenanceOf(base.Phone, "")
		return rec
	}

	rec.DataSource = model.DataSourceDual
	rec.RawSecondary = marshalRaw(supp.Raw)
	rec.SecondaryAddress = supp.Address

	rec.Representative, rec.RepresentativeSource = s.mergeField(base.Representative, supp.Representative)
	rec.Phone, rec.PhoneSource = s.mergeField(base.Phone, supp.Phone)

	rec.Email = supp.Email
	if rec.Status == "" {
		rec.Status = supp.Status
	}

	return rec
}

// Merge applies the default strategy.
func Merge(base model.BaseRecord, supp *model.SupplementaryRecord) model.CanonicalRecord {
	return DefaultStrategy().Merge(base, supp)
}

func (s Strategy) mergeField(primary, secondary string) (string, model.Provenance) {
	if s.RepresentativePrecedence == PrecedencePrimary && primary != "" {
		return primary, model.ProvenancePrimary
	}
	if secondary != "" {
		return secondary, model.ProvenanceSecondary
	}
	return primary, provenanceOf(primary, secondary)
}

// marshalRaw serializes a raw source payload for audit storage. Map
// keys serialize in sorted order, so the output is deterministic.
func marshalRaw[M ~map[string]V, V any](raw M) string {
	if len(raw) == 0 {
		return ""
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return ""
	}
	return string(data)
}

func provenanceOf(primary, secondary string) model.Provenance {
	switch {
	case primary != "":
		return model.ProvenancePrimary
	case secondary != "":
		return model.ProvenanceSecondary
	default:
		return model.ProvenanceUnavailable
	}
}
