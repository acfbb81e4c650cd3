// Package envelope provides the two JSON response wrappers used across the
// API. Analytics, emergency and pharmacy routes return {status, data};
// patient, prescription and medical-record routes return
// {success, message, data}. Clients depend on both shapes, so each route
// family keeps its historical convention.
package envelope

import (
	"github.com/labstack/echo/v4"
)

// StatusBody is the {status, data} wrapper.
type StatusBody struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
}

// SuccessBody is the {success, message, data} wrapper.
type SuccessBody struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Status writes a {status: "success", data} response with the given code.
func Status(c echo.Context, code int, data interface{}) error {
	return c.JSON(code, StatusBody{Status: "success", Data: data})
}

// StatusError writes a {status: "error", data} response.
func StatusError(c echo.Context, code int, data interface{}) error {
	return c.JSON(code, StatusBody{Status: "error", Data: data})
}

// OK writes a {success: true, message, data} response with the given code.
func OK(c echo.Context, code int, message string, data interface{}) error {
	return c.JSON(code, SuccessBody{Success: true, Message: message, Data: data})
}

// Fail writes a {success: false, message} response with the given code.
func Fail(c echo.Context, code int, message string) error {
	return c.JSON(code, SuccessBody{Success: false, Message: message})
}
