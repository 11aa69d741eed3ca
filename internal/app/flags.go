package app

import (
	"fmt"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// formatValue implements pflag.Value for the report format.
type formatValue string

func (f *formatValue) String() string {
	return string(*f)
}

func (f *formatValue) Set(v string) error {
	if v != FormatJSON && v != FormatText {
		return fmt.Errorf("%q is not a report format, must be 'text' or 'json'", v)
	}
	*f = formatValue(v)
	return nil
}

func (f *formatValue) Type() string {
	return "<format>"
}

// pathValue implements pflag.Value to show a path placeholder in help text.
type pathValue string

func (p *pathValue) String() string {
	return string(*p)
}

func (p *pathValue) Set(v string) error {
	*p = pathValue(v)
	return nil
}

func (p *pathValue) Type() string {
	return "<path>"
}
