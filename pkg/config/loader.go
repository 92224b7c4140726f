package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/shopspring/decimal"
)

// Load parses environment variables into the struct pointed to by cfg.
// Besides the types env supports natively, decimal.Decimal fields are parsed
// from their string form so money settings never pass through float64.
//
//	type Config struct {
//	    Port        int             `env:"HTTP_PORT" envDefault:"8080"`
//	    ShippingFee decimal.Decimal `env:"SHIPPING_FLAT" envDefault:"5.99"`
//	}
func Load(cfg any) error {
	opts := env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(decimal.Decimal{}): parseDecimal,
		},
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func parseDecimal(v string) (any, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return nil, fmt.Errorf("invalid decimal %q: %w", v, err)
	}
	return d, nil
}
