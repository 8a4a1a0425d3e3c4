// Package service holds the business logic of the booking server.
package service

const tracerName = "github.com/samsalgado/DECENTMED-SERVER/internal/service"
