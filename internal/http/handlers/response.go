// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response envelope shared by every endpoint and the
// composite response code written into it. The envelope is:
//
//	{ "success": bool, "responseCode": "...", "responseMessage": "...", "data": ... }
//
// and the response code is always exactly seven characters:
//
//	2-digit HTTP class ("20", "40", "41"→"40", "50")
//	3-char module identifier (one per role area, see modules below)
//	2-char specific outcome (success, created, not-found, ...)
//
// The code is a pure function of (status, module, specific); handlers never
// hand-assemble codes. `data` is present only on success responses (and the
// odd error body that echoes procedure data); plain failures omit it.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aml-logistics/aml-api/internal/http/middleware"
	"github.com/aml-logistics/aml-api/internal/http/respcode"
)

// Module identifiers, one per role area.
const (
	ModuleAuth     = respcode.ModuleAuth
	ModuleCustomer = respcode.ModuleCustomer
	ModuleDriver   = respcode.ModuleDriver
	ModuleLoading  = respcode.ModuleLoading
	ModuleAgent    = respcode.ModuleAgent
	ModuleTracking = respcode.ModuleTracking
	// ModuleSystem covers health, routing fallbacks, and anything not owned
	// by a role area.
	ModuleSystem = respcode.ModuleSystem
)

// Specific outcome identifiers.
const (
	SpecificSuccess      = respcode.SpecificSuccess
	SpecificCreated      = respcode.SpecificCreated
	SpecificNotFound     = respcode.SpecificNotFound
	SpecificInvalid      = respcode.SpecificInvalid
	SpecificUnauthorized = respcode.SpecificUnauthorized
	SpecificForbidden    = respcode.SpecificForbidden
	SpecificError        = respcode.SpecificError
)

// Envelope is the uniform response body for every endpoint.
type Envelope struct {
	Success         bool   `json:"success"`
	ResponseCode    string `json:"responseCode"`
	ResponseMessage string `json:"responseMessage"`
	Data            any    `json:"data,omitempty"`
}

// Code builds the 7-character composite response code from an HTTP status,
// a module identifier, and a specific-outcome identifier.
func Code(status int, module, specific string) string {
	return respcode.Code(status, module, specific)
}

// OK writes a 200 envelope with payload data.
func OK(c *gin.Context, data any, message, module string) {
	c.JSON(http.StatusOK, Envelope{
		Success:         true,
		ResponseCode:    Code(http.StatusOK, module, SpecificSuccess),
		ResponseMessage: message,
		Data:            data,
	})
}

// Created writes a 201 envelope with payload data.
func Created(c *gin.Context, data any, message, module string) {
	c.JSON(http.StatusCreated, Envelope{
		Success:         true,
		ResponseCode:    Code(http.StatusCreated, module, SpecificCreated),
		ResponseMessage: message,
		Data:            data,
	})
}

// Bad writes a failure envelope with a caller-chosen status and specific
// code. 5xx responses are logged with request context; the client only sees
// the message.
func Bad(c *gin.Context, message string, status int, module, specific string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("module", module).
			Str("message", message).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, Envelope{
		Success:         false,
		ResponseCode:    Code(status, module, specific),
		ResponseMessage: message,
	})
}

// NotFound writes a 404 envelope.
func NotFound(c *gin.Context, message, module string) {
	Bad(c, message, http.StatusNotFound, module, SpecificNotFound)
}

// Unauthorized writes a 401 envelope.
func Unauthorized(c *gin.Context, message, module string) {
	Bad(c, message, http.StatusUnauthorized, module, SpecificUnauthorized)
}

// Forbidden writes a 403 envelope.
func Forbidden(c *gin.Context, message, module string) {
	Bad(c, message, http.StatusForbidden, module, SpecificForbidden)
}

// ServerError writes a 500 envelope. The underlying error is logged, never
// leaked to the client.
func ServerError(c *gin.Context, err error, message, module string) {
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Str("module", module).Msg("api error")
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, Envelope{
		Success:         false,
		ResponseCode:    Code(http.StatusInternalServerError, module, SpecificError),
		ResponseMessage: message,
	})
}
