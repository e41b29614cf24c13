package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const maxBodyBytes = 1 << 20

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON field names instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// fieldErrors carries per-field validation messages.
type fieldErrors struct {
	fields map[string]string
}

func (e *fieldErrors) Error() string {
	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = e.fields[k]
	}
	return strings.Join(parts, "; ")
}

func (e *fieldErrors) Is(target error) bool { return target == ErrBadRequest }

// decode reads a JSON body into v and validates it.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fe := &fieldErrors{fields: make(map[string]string, len(verrs))}
			for _, ve := range verrs {
				fe.fields[ve.Field()] = ve.Translate(translator)
			}
			return fe
		}
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}
