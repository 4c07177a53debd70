package inventory

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/agentstation/netbox-connector/pkg/constants"
	"github.com/agentstation/netbox-connector/pkg/errors"
	"github.com/agentstation/netbox-connector/pkg/netbox"
)

// Stanza is one export job as configured: every value is the text the host
// handed over.
type Stanza struct {
	Name      string `mapstructure:"-" json:"-" yaml:"-"`
	NetBoxURL string `mapstructure:"netbox_url" json:"netbox_url" yaml:"netbox_url" validate:"omitempty,url"`
	Token     string `mapstructure:"token" json:"-" yaml:"-"`
	Resource  string `mapstructure:"resource" json:"resource" yaml:"resource" validate:"required,startsnotwith=/"`
	Query     string `mapstructure:"query" json:"query,omitempty" yaml:"query,omitempty"`
	VerifySSL string `mapstructure:"verify_ssl" json:"verify_ssl,omitempty" yaml:"verify_ssl,omitempty"`
	CABundle  string `mapstructure:"ca_bundle" json:"ca_bundle,omitempty" yaml:"ca_bundle,omitempty" validate:"omitempty,file"`
	Timeout   string `mapstructure:"timeout" json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// WithDefaults fills the connection settings s leaves empty from d.
// Name, resource and query are never inherited.
func (s Stanza) WithDefaults(d Stanza) Stanza {
	fill := func(v *string, def string) {
		if strings.TrimSpace(*v) == "" {
			*v = def
		}
	}
	fill(&s.NetBoxURL, d.NetBoxURL)
	fill(&s.Token, d.Token)
	fill(&s.VerifySSL, d.VerifySSL)
	fill(&s.CABundle, d.CABundle)
	fill(&s.Timeout, d.Timeout)
	return s
}

// Job is a validated stanza ready to run.
type Job struct {
	Name       string
	Endpoint   netbox.Config
	Resource   string
	Filters    map[string]string
	Sourcetype string
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func stanzaValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("mapstructure"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// ValidateStanza checks a stanza's shape without touching the network: the
// resource must be present and relative, the query a JSON object and the
// timeout an integer.
func ValidateStanza(s Stanza) error {
	if err := stanzaValidator().Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(s.Name, verrs[0])
		}
		return errors.NewConfigError(component(s.Name), "", "invalid stanza", err)
	}
	if _, err := netbox.ParseFilters(s.Query); err != nil {
		return restamp(s.Name, err)
	}
	if t := strings.TrimSpace(s.Timeout); t != "" {
		if _, err := strconv.Atoi(t); err != nil {
			return errors.NewConfigError(component(s.Name), "timeout", "timeout must be an integer", err)
		}
	}
	return nil
}

func fieldError(name string, fe validator.FieldError) error {
	var msg string
	switch fe.Tag() {
	case "required":
		msg = "a NetBox resource must be provided"
	case "startsnotwith":
		msg = "the NetBox resource must not start with a leading slash"
	case "url":
		msg = "must be an absolute URL"
	case "file":
		msg = "trust bundle file does not exist"
	default:
		msg = "failed on " + fe.Tag() + " check"
	}
	return errors.NewConfigError(component(name), fe.Field(), msg, nil)
}

// restamp attributes a ConfigError raised by a parser to the stanza.
func restamp(name string, err error) error {
	var cfgErr *errors.ConfigError
	if errors.As(err, &cfgErr) {
		return errors.NewConfigError(component(name), cfgErr.Field, cfgErr.Message, cfgErr.Err)
	}
	return errors.WrapConfig(component(name), "", err)
}

func component(name string) string {
	if name == "" {
		return "stanza"
	}
	return "stanza " + name
}

// ParseStanza validates s and converts it to a Job. Verification defaults to
// on and the timeout to 60 seconds.
func ParseStanza(s Stanza) (*Job, error) {
	if err := ValidateStanza(s); err != nil {
		return nil, err
	}
	filters, err := netbox.ParseFilters(s.Query)
	if err != nil {
		return nil, restamp(s.Name, err)
	}
	timeout, err := netbox.ParseTimeout(s.Timeout)
	if err != nil {
		return nil, restamp(s.Name, err)
	}

	return &Job{
		Name: s.Name,
		Endpoint: netbox.Config{
			BaseURL:  s.NetBoxURL,
			Token:    strings.TrimSpace(s.Token),
			Verify:   netbox.ParseBool(s.VerifySSL, true),
			CABundle: strings.TrimSpace(s.CABundle),
			Timeout:  timeout,
		},
		Resource:   s.Resource,
		Filters:    filters,
		Sourcetype: Sourcetype(s.Resource),
	}, nil
}

// ParseStanzas validates every stanza before converting any, so a bad stanza
// stops the run before the first request.
func ParseStanzas(stanzas []Stanza) ([]*Job, error) {
	for _, s := range stanzas {
		if err := ValidateStanza(s); err != nil {
			return nil, err
		}
	}
	jobs := make([]*Job, 0, len(stanzas))
	for _, s := range stanzas {
		job, err := ParseStanza(s)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Sourcetype derives the event category label of a resource,
// e.g. dcim/devices -> netbox:dcim_devices.
func Sourcetype(resource string) string {
	return constants.SourcetypePrefix + strings.ReplaceAll(resource, "/", "_")
}
