// Package docs registra la especificación OpenAPI servida en /swagger.
// Regenerar con: swag init -g cmd/api/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/health": {
            "get": {
                "tags": ["system"],
                "summary": "Liveness",
                "responses": {"200": {"description": "ok"}}
            }
        },
        "/auth/social-login": {
            "post": {
                "tags": ["auth"],
                "summary": "Login con proveedor externo",
                "responses": {"200": {"description": "tokens"}, "400": {"description": "validación"}}
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["auth"],
                "summary": "Renovar tokens",
                "responses": {"200": {"description": "tokens"}, "401": {"description": "token inválido"}}
            }
        },
        "/animals/": {
            "get": {"tags": ["animals"], "summary": "Listar animales", "responses": {"200": {"description": "lista"}}},
            "post": {"tags": ["animals"], "summary": "Crear animal", "responses": {"201": {"description": "creado"}, "401": {"description": "anónimo"}}}
        },
        "/animals/{animalID}": {
            "get": {"tags": ["animals"], "summary": "Detalle de animal", "responses": {"200": {"description": "detalle"}, "404": {"description": "no existe"}}},
            "put": {"tags": ["animals"], "summary": "Reemplazar animal", "responses": {"200": {"description": "actualizado"}, "403": {"description": "ajeno"}}},
            "patch": {"tags": ["animals"], "summary": "Actualizar animal", "responses": {"200": {"description": "actualizado"}, "403": {"description": "ajeno"}}},
            "delete": {"tags": ["animals"], "summary": "Borrar animal", "responses": {"204": {"description": "borrado"}, "403": {"description": "ajeno"}}}
        },
        "/animals/{animalID}/events": {
            "get": {"tags": ["animals"], "summary": "Historial del animal", "responses": {"200": {"description": "eventos"}}}
        },
        "/animals/{animalID}/children": {
            "get": {"tags": ["animals"], "summary": "Crías del animal", "responses": {"200": {"description": "animales"}}}
        },
        "/animals/{animalID}/image": {
            "post": {"tags": ["animals"], "summary": "Subir imagen de perfil", "responses": {"200": {"description": "actualizado"}}}
        },
        "/events/": {
            "get": {"tags": ["events"], "summary": "Listar eventos", "responses": {"200": {"description": "lista"}}},
            "post": {"tags": ["events"], "summary": "Crear evento", "responses": {"201": {"description": "creado"}}}
        },
        "/events/incubator": {
            "get": {"tags": ["events"], "summary": "Puestas en incubación", "responses": {"200": {"description": "lista"}}}
        },
        "/events/{eventID}": {
            "get": {"tags": ["events"], "summary": "Detalle de evento", "responses": {"200": {"description": "detalle"}}},
            "put": {"tags": ["events"], "summary": "Reemplazar evento", "responses": {"200": {"description": "actualizado"}}},
            "patch": {"tags": ["events"], "summary": "Actualizar evento", "responses": {"200": {"description": "actualizado"}}},
            "delete": {"tags": ["events"], "summary": "Borrar evento", "responses": {"204": {"description": "borrado"}}}
        },
        "/events/{eventID}/image": {
            "post": {"tags": ["events"], "summary": "Subir imagen del evento", "responses": {"200": {"description": "actualizado"}}}
        },
        "/settings/": {
            "get": {"tags": ["settings"], "summary": "Preferencias del usuario", "responses": {"200": {"description": "settings"}}},
            "post": {"tags": ["settings"], "summary": "Actualizar preferencias", "responses": {"200": {"description": "settings"}}},
            "put": {"tags": ["settings"], "summary": "Actualizar preferencias", "responses": {"200": {"description": "settings"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "GeckoHub API",
	Description:      "Registro de geckos: animales, eventos, linaje y preferencias.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
