// Package docs registers the OpenAPI document served under /swagger.
// swagger.json follows the handler annotations; regenerate it with
//
//	swag init -g cmd/server/main.go -o docs --outputTypes json
package docs

import (
	_ "embed"

	"github.com/swaggo/swag/v2"
)

//go:embed swagger.json
var docTemplate string

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Title:            "Freight Backend API",
	Description:      "Shipment booking, cost lifecycle and reconciliation API",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
