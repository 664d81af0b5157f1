package connection

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/vanity/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Spec is the normalized connection configuration.
type Spec struct {
	Adapter  string              `mapstructure:"adapter" json:"adapter"`
	Host     string              `mapstructure:"host" json:"host,omitempty"`
	Port     int                 `mapstructure:"port" json:"port,omitempty"`
	Path     string              `mapstructure:"path" json:"path,omitempty"`
	Username string              `mapstructure:"username" json:"username,omitempty"`
	Password string              `mapstructure:"password" json:"-"`
	Params   map[string][]string `mapstructure:"params" json:"params,omitempty"`
}

// Alias names an entry of the environment-keyed configuration file.
type Alias string

// Param returns the first value of a query parameter, or "".
func (s Spec) Param(name string) string {
	if v := s.Params[name]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Addr joins Host and Port, falling back to the given defaults.
func (s Spec) Addr(defaultHost string, defaultPort int) string {
	host, port := s.Host, s.Port
	if host == "" {
		host = defaultHost
	}
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// String renders the spec as a URI with the password redacted.
func (s Spec) String() string {
	u := url.URL{Scheme: s.Adapter, Path: s.Path}
	if s.Host != "" || s.Port != 0 {
		u.Host = s.Host
		if s.Port != 0 {
			u.Host = net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
		}
	}
	if s.Username != "" {
		if s.Password != "" {
			u.User = url.UserPassword(s.Username, "xxxxx")
		} else {
			u.User = url.User(s.Username)
		}
	}
	if len(s.Params) > 0 {
		u.RawQuery = url.Values(s.Params).Encode()
	}
	if u.Host == "" && u.User == nil {
		return u.Scheme + ":" + u.Path + queryOf(u)
	}
	return u.String()
}

func queryOf(u url.URL) string {
	if u.RawQuery == "" {
		return ""
	}
	return "?" + u.RawQuery
}

// ParseURI parses a connection URI. The scheme names the adapter.
func ParseURI(raw string) (Spec, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return Spec{}, &domain.ConfigurationError{Msg: fmt.Sprintf("invalid connection URI %q", raw), Err: err}
	}
	if u.Scheme == "" {
		return Spec{}, &domain.ConfigurationError{Msg: fmt.Sprintf("connection URI %q has no adapter scheme", raw)}
	}

	spec := Spec{
		Adapter: strings.ToLower(u.Scheme),
		Host:    u.Hostname(),
		Path:    u.Path,
	}
	if u.Opaque != "" && spec.Path == "" {
		spec.Path = u.Opaque
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return Spec{}, &domain.ConfigurationError{Msg: fmt.Sprintf("invalid port in %q", raw), Err: err}
		}
		spec.Port = port
	}
	if u.User != nil {
		spec.Username = u.User.Username()
		spec.Password, _ = u.User.Password()
	}
	if u.RawQuery != "" {
		params, err := url.ParseQuery(u.RawQuery)
		if err != nil {
			return Spec{}, &domain.ConfigurationError{Msg: fmt.Sprintf("invalid query in %q", raw), Err: err}
		}
		spec.Params = params
	}
	return spec, nil
}

var keySynonyms = map[string]string{
	"user":     "username",
	"pass":     "password",
	"db":       "path",
	"database": "path",
	"scheme":   "adapter",
}

var specKeys = map[string]bool{
	"adapter": true, "host": true, "port": true, "path": true,
	"username": true, "password": true, "params": true,
}

// FromMap normalizes a structured spec. Keys are matched case-insensitively,
// a leading ':' is ignored, and common synonyms (user, pass, db) are folded.
// Keys that are not Spec fields become params.
func FromMap(raw map[string]any) (Spec, error) {
	normalized := make(map[string]any, len(raw))
	extras := make(map[string]string)
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(k), ":"))
		if canonical, ok := keySynonyms[key]; ok {
			key = canonical
		}
		if !specKeys[key] {
			extras[key] = fmt.Sprint(raw[k])
			continue
		}
		if _, dup := normalized[key]; dup {
			return Spec{}, &domain.ConfigurationError{Msg: fmt.Sprintf("connection key %q given twice", key)}
		}
		normalized[key] = raw[k]
	}
	if path, ok := normalized["path"]; ok {
		if n, isInt := path.(int); isInt {
			normalized["path"] = "/" + strconv.Itoa(n)
		}
	}

	var spec Spec
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &spec,
	})
	if err != nil {
		return Spec{}, err
	}
	if err := decoder.Decode(normalized); err != nil {
		return Spec{}, &domain.ConfigurationError{Msg: "invalid connection map", Err: err}
	}
	spec.Adapter = strings.ToLower(spec.Adapter)
	for k, v := range extras {
		if spec.Params == nil {
			spec.Params = make(map[string][]string)
		}
		spec.Params[k] = append(spec.Params[k], v)
	}
	return spec, nil
}
