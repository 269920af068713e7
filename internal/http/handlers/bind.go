package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	apierrors "github.com/pribylovaa/sabha/internal/errors"
	"github.com/pribylovaa/sabha/internal/pkg/log"
)

const maxBodyBytes = 1 << 20

var (
	vOnce      sync.Once
	validate   *validator.Validate
	translator ut.Translator
)

// validatorInit настраивает validator с английскими сообщениями
// и именами полей из json-тегов.
func validatorInit() {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		translator, _ = uni.GetTranslator("en")

		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})

		_ = en_translations.RegisterDefaultTranslations(validate, translator)
	})
}

// decodeStrict: строгий JSON-декодер: запрещаем неизвестные поля и хвосты,
// затем валидируем структуру. Любая ошибка: 400 с понятным сообщением.
func decodeStrict(r *http.Request, value any) error {
	validatorInit()

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(value); err != nil {
		if errors.Is(err, io.EOF) {
			return apierrors.InvalidArgument("request body is empty")
		}
		return apierrors.InvalidArgument("invalid JSON")
	}

	if dec.More() {
		return apierrors.InvalidArgument("unexpected trailing data")
	}

	if err := validate.Struct(value); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apierrors.InvalidArgument(verrs[0].Translate(translator))
		}

		log.From(r.Context()).Error("validator internal error", "err", err)
		return apierrors.InvalidArgument("validation error")
	}

	return nil
}
