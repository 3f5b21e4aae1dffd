package integration

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/erp/commerce-sync/internal/domain/integration"
)

// Environment is the per-invocation parameter set. Field tags name the
// environment variables the values are read from. Only fields tagged
// override:"allow" may be replaced per invocation; endpoints and credentials
// always come from the process configuration.
type Environment struct {
	CommerceBaseURL           string `env:"COMMERCE_BASE_URL" validate:"required,url"`
	CommerceConsumerKey       string `env:"COMMERCE_CONSUMER_KEY" validate:"required_without=CommerceAdminToken"`
	CommerceConsumerSecret    string `env:"COMMERCE_CONSUMER_SECRET" validate:"required_without=CommerceAdminToken"`
	CommerceAccessToken       string `env:"COMMERCE_ACCESS_TOKEN" validate:"required_without=CommerceAdminToken"`
	CommerceAccessTokenSecret string `env:"COMMERCE_ACCESS_TOKEN_SECRET" validate:"required_without=CommerceAdminToken"`
	CommerceAdminToken        string `env:"COMMERCE_ADMIN_TOKEN"`

	DotdigitalAPIURL                string `env:"DOTDIGITAL_API_URL" validate:"required,url"`
	DotdigitalAPIUser               string `env:"DOTDIGITAL_API_USER" validate:"required"`
	DotdigitalAPIPassword           string `env:"DOTDIGITAL_API_PASSWORD" validate:"required"`
	DotdigitalListCustomer          string `env:"DOTDIGITAL_LIST_CUSTOMER" validate:"omitempty,numeric" override:"allow"`
	DotdigitalListSubscriber        string `env:"DOTDIGITAL_LIST_SUBSCRIBER" validate:"required,numeric" override:"allow"`
	DotdigitalCatalogCollectionName string `env:"DOTDIGITAL_CATALOG_COLLECTION_NAME" validate:"required" override:"allow"`
	DotdigitalDataFieldMapping      string `env:"DOTDIGITAL_DATAFIELD_MAPPING" validate:"required" override:"allow"`

	LogLevel string `env:"LOG_LEVEL" override:"allow"`
}

var (
	commerceEnv = []string{
		"CommerceBaseURL",
		"CommerceConsumerKey",
		"CommerceConsumerSecret",
		"CommerceAccessToken",
		"CommerceAccessTokenSecret",
	}
	dotdigitalEnv = []string{
		"DotdigitalAPIURL",
		"DotdigitalAPIUser",
		"DotdigitalAPIPassword",
	}

	entityEnv = map[integration.Entity][]string{
		integration.EntityCustomer:   withBase("DotdigitalDataFieldMapping", "DotdigitalListCustomer"),
		integration.EntityOrder:      withBase(),
		integration.EntityProduct:    withBase("DotdigitalCatalogCollectionName"),
		integration.EntitySubscriber: withBase("DotdigitalListSubscriber"),
	}

	envValidator = newEnvValidator()
)

func withBase(fields ...string) []string {
	out := make([]string, 0, len(commerceEnv)+len(dotdigitalEnv)+len(fields))
	out = append(out, commerceEnv...)
	out = append(out, dotdigitalEnv...)
	return append(out, fields...)
}

// newEnvValidator reports field errors by environment variable name.
func newEnvValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("env"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

// Require checks the parameters the entity's pipeline reads. Absent values
// yield a missing parameters error, malformed ones a validation error naming
// the variables.
func (e Environment) Require(entity integration.Entity) error {
	fields, ok := entityEnv[entity]
	if !ok {
		return fmt.Errorf("%w: %s", integration.ErrUnknownEntity, entity)
	}

	err := envValidator.StructPartial(e, fields...)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var missing, invalid []string
	for _, fe := range verrs {
		if strings.HasPrefix(fe.Tag(), "required") {
			missing = append(missing, fe.Field())
		} else {
			invalid = append(invalid, fe.Field())
		}
	}
	if len(missing) > 0 {
		return integration.NewMissingParametersError(missing)
	}
	return &integration.ValidationError{
		Message: fmt.Sprintf("invalid parameter(s) '%s'", strings.Join(invalid, ", ")),
		Fields:  invalid,
	}
}

// Override returns a copy of e where every non-empty value keyed by an
// overridable environment variable name replaces the corresponding field.
// Other names are ignored.
func (e Environment) Override(values map[string]string) Environment {
	if len(values) == 0 {
		return e
	}
	v := reflect.ValueOf(&e).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("override") != "allow" {
			continue
		}
		if value, ok := values[field.Tag.Get("env")]; ok && value != "" {
			v.Field(i).SetString(value)
		}
	}
	return e
}

// overridable holds the environment names Override accepts.
var overridable = func() map[string]bool {
	names := make(map[string]bool)
	t := reflect.TypeOf(Environment{})
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("override") == "allow" {
			names[t.Field(i).Tag.Get("env")] = true
		}
	}
	return names
}()

// Overridable reports whether name may be overridden per invocation.
func Overridable(name string) bool {
	return overridable[name]
}

// Values returns the non-empty parameters keyed by environment variable name.
func (e Environment) Values() map[string]string {
	out := make(map[string]string)
	v := reflect.ValueOf(e)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if s := v.Field(i).String(); s != "" {
			out[t.Field(i).Tag.Get("env")] = s
		}
	}
	return out
}

// UsesAdminToken reports whether the commerce API is called with a bearer
// token instead of OAuth 1.0a credentials.
func (e Environment) UsesAdminToken() bool {
	return e.CommerceAdminToken != ""
}
