package handlers

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"mentormuni-server/models"
)

var contactEmailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators installs the custom binding tags on gin's validator.
// Safe to call more than once.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		registerErr = errors.Join(
			v.RegisterValidation("usertype", validateUserType),
			v.RegisterValidation("yesno", validateYesNo),
			v.RegisterValidation("contactemail", validateContactEmail),
		)
	})
	return registerErr
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

func validateUserType(fl validator.FieldLevel) bool {
	_, err := models.NormalizeUserType(fl.Field().String())
	return err == nil
}

func validateYesNo(fl validator.FieldLevel) bool {
	switch strings.TrimSpace(fl.Field().String()) {
	case models.AnswerYes, models.AnswerNo:
		return true
	}
	return false
}

func validateContactEmail(fl validator.FieldLevel) bool {
	return contactEmailPattern.MatchString(strings.TrimSpace(fl.Field().String()))
}
