package web

import (
	"strconv"

	"garage/internal/car"
	"garage/internal/response"
	"garage/internal/router"
)

// CarsPageData feeds the car listing template.
type CarsPageData struct {
	pageMeta
	Cars []car.Car
}

// CarPageData feeds the single-car template.
type CarPageData struct {
	pageMeta
	Car car.Car
}

// ListCars renders the car listing, newest first. Registered behind
// RequireAuth.
func (h *Handlers) ListCars(ctx *router.Context) router.Response {
	cars, err := h.cars.List(ctx)
	if err != nil {
		return response.Error(err)
	}

	m, err := h.meta(ctx, "Cars")
	if err != nil {
		return response.Error(err)
	}
	return response.Template(h.tmpl.Cars, CarsPageData{pageMeta: m, Cars: cars})
}

// ShowCar renders one car by its path parameter. A non-numeric or
// unknown id is a plain 404.
func (h *Handlers) ShowCar(ctx *router.Context) router.Response {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		return response.Error(response.ErrNotFound.WithMessage("No such car."))
	}

	c, err := h.cars.Find(ctx, id)
	if err != nil {
		return response.Error(err)
	}
	if c == nil {
		return response.Error(response.ErrNotFound.WithMessage("No such car."))
	}

	m, err := h.meta(ctx, c.Make+" "+c.Model)
	if err != nil {
		return response.Error(err)
	}
	return response.Template(h.tmpl.Car, CarPageData{pageMeta: m, Car: *c})
}
