package editor

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/montage/internal/timeline"
)

var errNoProperties = errors.New("at least one property is required")

// ValidateProperties checks a properties patch against the editable
// ranges: opacity and volume in [0, 100], scale >= 0, speed > 0.
func ValidateProperties(p timeline.PropertiesPatch) error {
	if p.Empty() {
		return errNoProperties
	}
	return validation.ValidateStruct(&p,
		validation.Field(&p.Opacity, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&p.Volume, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&p.Scale, validation.Min(0.0)),
		validation.Field(&p.Speed, validation.By(func(any) error {
			if p.Speed != nil && *p.Speed <= 0 {
				return errors.New("must be greater than 0")
			}
			return nil
		})),
	)
}
