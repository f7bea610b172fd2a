package georef

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

func (c *httpClient) Provinces(ctx context.Context, name string, max int) ([]Province, error) {
	max = orDefault(max, c.limits.Provinces)
	name = strings.TrimSpace(name)

	params := url.Values{}
	if name != "" {
		params.Set("nombre", name)
	}
	params.Set("campos", "completo")
	params.Set("orden", "nombre")
	params.Set("max", strconv.Itoa(max))

	got, err := fetch(ctx, c, request{op: OpProvinces, endpoint: "/provincias", params: params}, decodeProvinces)
	return withFallback(ctx, c, OpProvinces, got, err, func() []Province {
		return c.fallback.provinces(name, max)
	})
}

func (c *httpClient) Localities(ctx context.Context, provinceID, name string, max int) ([]Locality, error) {
	provinceID = strings.TrimSpace(provinceID)
	if provinceID == "" {
		return nil, ErrProvinceRequired
	}
	max = orDefault(max, c.limits.Localities)
	name = strings.TrimSpace(name)

	params := url.Values{}
	params.Set("provincia", provinceID)
	if name != "" {
		params.Set("nombre", name)
	}
	params.Set("campos", "completo")
	params.Set("orden", "nombre")
	params.Set("max", strconv.Itoa(max))

	got, err := fetch(ctx, c, request{op: OpLocalities, endpoint: "/localidades", params: params}, decodeLocalities)
	return withFallback(ctx, c, OpLocalities, got, err, func() []Locality {
		return c.fallback.localities(provinceID, name, max)
	})
}

func (c *httpClient) AllLocalities(ctx context.Context, provinceID string) ([]Locality, error) {
	provinceID = strings.TrimSpace(provinceID)
	if provinceID == "" {
		return nil, ErrProvinceRequired
	}
	max := c.limits.AllLocalities

	params := url.Values{}
	params.Set("provincia", provinceID)
	params.Set("campos", "completo")
	params.Set("orden", "nombre")
	params.Set("max", strconv.Itoa(max))

	got, err := fetch(ctx, c, request{op: OpAllLocalities, endpoint: "/localidades", params: params}, decodeLocalities)
	return withFallback(ctx, c, OpAllLocalities, got, err, func() []Locality {
		return c.fallback.localities(provinceID, "", max)
	})
}

func (c *httpClient) SearchLocalities(ctx context.Context, text, provinceID string, max int) ([]Locality, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrQueryRequired
	}
	max = orDefault(max, c.limits.Search)
	provinceID = strings.TrimSpace(provinceID)

	params := url.Values{}
	params.Set("nombre", text)
	if provinceID != "" {
		params.Set("provincia", provinceID)
	}
	params.Set("campos", "estandar")
	params.Set("max", strconv.Itoa(max))

	got, err := fetch(ctx, c, request{op: OpSearchLocalities, endpoint: "/localidades", params: params}, decodeLocalities)
	return withFallback(ctx, c, OpSearchLocalities, got, err, func() []Locality {
		return c.fallback.search(text, provinceID, max)
	})
}

func (c *httpClient) NormalizeAddress(ctx context.Context, q AddressQuery) ([]Address, error) {
	address := strings.TrimSpace(q.Address)
	if address == "" {
		return nil, ErrQueryRequired
	}
	max := orDefault(q.Max, c.limits.Addresses)

	params := url.Values{}
	params.Set("direccion", address)
	if p := strings.TrimSpace(q.ProvinceID); p != "" {
		params.Set("provincia", p)
	}
	if l := strings.TrimSpace(q.LocalityID); l != "" {
		params.Set("localidad", l)
	}
	params.Set("max", strconv.Itoa(max))

	got, err := fetch(ctx, c, request{op: OpNormalizeAddress, endpoint: "/direcciones", params: params}, decodeAddresses)
	return withFallback(ctx, c, OpNormalizeAddress, got, err, func() []Address {
		// The bundled dataset has no streets.
		return []Address{}
	})
}
