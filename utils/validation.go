/*
 * Copyright 2025 Olake By Datazip
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// customRule is a validation tag together with its english message
type customRule struct {
	tag     string
	check   validator.Func
	message string
}

var customRules = []customRule{
	{tag: "rfc3339", check: isTimestamp, message: "{0} must be an RFC3339 timestamp or a YYYY-MM-DD date"},
}

// one validator for the process, it caches struct info
var (
	validate *validator.Validate
	trans    ut.Translator
)

// Validate checks the validate tags of structure and reports every failing
// field in one message, named after its json key
func Validate[T any](structure T) error {
	err := validate.Struct(structure)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		messages = append(messages, fieldErr.Translate(trans))
	}
	return errors.New(strings.Join(messages, "; "))
}

func isTimestamp(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

func jsonName(field reflect.StructField) string {
	for _, key := range []string{"json", "yaml"} {
		name, _, _ := strings.Cut(field.Tag.Get(key), ",")
		switch name {
		case "":
			continue
		case "-":
			return field.Name
		default:
			return name
		}
	}
	return field.Name
}

func init() {
	english := en.New()
	trans, _ = ut.New(english, english).GetTranslator("en")

	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonName)
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic(err)
	}

	for _, rule := range customRules {
		if err := validate.RegisterValidation(rule.tag, rule.check); err != nil {
			panic(err)
		}
		message := rule.message
		err := validate.RegisterTranslation(rule.tag, trans, func(t ut.Translator) error {
			return t.Add(rule.tag, message, true)
		}, func(t ut.Translator, fe validator.FieldError) string {
			translated, _ := t.T(fe.Tag(), fe.Field())
			return translated
		})
		if err != nil {
			panic(err)
		}
	}
}
