// Package docs registra el documento OpenAPI servido en /api-docs/.
// Se mantiene a mano con el mismo formato que genera `swag init`.
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
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/health"}}}
            }
        },
        "/api/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "description": "Autentica con email y password y devuelve un JWT (24 h).",
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/loginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/loginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/loginResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/loginResponse"}}
                }
            }
        },
        "/api/verify-token": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Verificar token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/verifyTokenResponse"}},
                    "401": {"description": "Authentication token required", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/api/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["stats"],
                "summary": "Estadísticas del dashboard",
                "description": "Por categoría: total, registrados en los últimos 7 días, vencidos y activos (active + expired = total).",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dashboardStats"}},
                    "401": {"description": "Authentication token required", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "500": {"description": "Error fetching stats", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/api/{category}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "Listar expedientes",
                "description": "Devuelve todos los expedientes de la categoría ordenados por registrationDate descendente.",
                "parameters": [{"$ref": "#/parameters/category"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/file"}}},
                    "500": {"description": "Error fetching files", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "Crear expediente",
                "description": "Todos los campos de la categoría son obligatorios. Si no vienen registrationDate/expiryDate se usan hoy y hoy + horizonte (personal/emergency 1 año, family 2, referral 5).",
                "parameters": [
                    {"$ref": "#/parameters/category"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/fileInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/file"}},
                    "400": {"description": "Missing required fields", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "401": {"description": "Authentication token required", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "500": {"description": "Error creating file", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/api/{category}/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "Obtener un expediente",
                "parameters": [{"$ref": "#/parameters/category"}, {"$ref": "#/parameters/id"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/file"}},
                    "404": {"description": "File not found", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "Actualizar expediente (parcial)",
                "description": "Sólo se modifican los campos presentes en el body. Body vacío = no-op.",
                "parameters": [
                    {"$ref": "#/parameters/category"},
                    {"$ref": "#/parameters/id"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/fileInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/file"}},
                    "400": {"description": "invalid input", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "404": {"description": "File not found", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "Actualizar expediente (parcial)",
                "parameters": [
                    {"$ref": "#/parameters/category"},
                    {"$ref": "#/parameters/id"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/fileInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/file"}},
                    "400": {"description": "invalid input", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "404": {"description": "File not found", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["files"],
                "summary": "Borrar expediente",
                "description": "Borrado definitivo. Responde 204 aunque el id no exista.",
                "parameters": [{"$ref": "#/parameters/category"}, {"$ref": "#/parameters/id"}],
                "responses": {
                    "204": {"description": "No Content"},
                    "500": {"description": "Error deleting file", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        }
    },
    "parameters": {
        "category": {"in": "path", "name": "category", "required": true, "type": "string", "enum": ["personal", "family", "referral", "emergency"]},
        "id": {"in": "path", "name": "id", "required": true, "type": "string", "description": "ID del expediente (SJMC-, FAM-, REF-, EMG-)"}
    },
    "definitions": {
        "errorResponse": {"type": "object", "properties": {"message": {"type": "string"}}},
        "health": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"},
                "message": {"type": "string"},
                "timestamp": {"type": "string", "format": "date-time"},
                "uptime": {"type": "number"}
            }
        },
        "loginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string", "example": "admin@sjmc.com"}, "password": {"type": "string"}}
        },
        "loginResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "token": {"type": "string"},
                "user": {"type": "object", "properties": {"email": {"type": "string"}}}
            }
        },
        "verifyTokenResponse": {
            "type": "object",
            "properties": {"user": {"type": "object", "properties": {"email": {"type": "string"}}}}
        },
        "categoryStats": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "weekly": {"type": "integer"},
                "expired": {"type": "integer"},
                "active": {"type": "integer"}
            }
        },
        "dashboardStats": {
            "type": "object",
            "properties": {
                "personal": {"$ref": "#/definitions/categoryStats"},
                "family": {"$ref": "#/definitions/categoryStats"},
                "referral": {"$ref": "#/definitions/categoryStats"},
                "emergency": {"$ref": "#/definitions/categoryStats"}
            }
        },
        "fileInput": {
            "type": "object",
            "description": "personal/emergency: name, age, gender. family: headName, memberCount. referral: referralName, patientCount.",
            "properties": {
                "name": {"type": "string"},
                "age": {"type": "integer", "minimum": 0},
                "gender": {"type": "string", "enum": ["Male", "Female", "Other"]},
                "headName": {"type": "string"},
                "memberCount": {"type": "integer", "minimum": 0},
                "referralName": {"type": "string"},
                "patientCount": {"type": "integer", "minimum": 0},
                "registrationDate": {"type": "string", "format": "date-time"},
                "expiryDate": {"type": "string", "format": "date-time"}
            }
        },
        "file": {
            "allOf": [
                {"$ref": "#/definitions/fileInput"},
                {
                    "type": "object",
                    "properties": {
                        "id": {"type": "string", "example": "SJMC-4F7K2Q9ZB"},
                        "status": {"type": "string", "enum": ["Active", "Expired"]}
                    }
                }
            ]
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT obtenido en /api/login. Formato: Bearer <token>",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "SJMC Records API",
	Description:      "Expedientes personales, familiares, de referencia y de emergencia del SJMC.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
