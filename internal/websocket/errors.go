package websocket

import "prisma-backend/internal/services"

var (
	errInvalidPayload  = &services.MissingInputError{Message: "Invalid request payload"}
	errUnsupportedKind = &services.MissingInputError{Message: "Only chat and essay can be streamed over a websocket"}
)
