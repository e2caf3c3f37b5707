// Package errors define los errores de transporte HTTP y cómo se escriben.
// El cuerpo tiene la misma forma que el sobre de resultado del pipeline
// (success/message/data) más code y detail, así el cliente parsea una sola forma.
package errors

import (
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Code    string `json:"code"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe err como respuesta JSON. Errores que no son *AppError
// salen como 500 sin exponer la causa.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Message: appErr.Message,
		Code:    appErr.Code,
		Detail:  appErr.Detail,
	})
}
