// Package docs registers the REST API document with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/games": {
            "get": {
                "produces": ["application/json"],
                "summary": "Joinable games",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.GamesListPayload"}}
                }
            }
        },
        "/games/{code}/archive": {
            "get": {
                "produces": ["application/json"],
                "summary": "Latest finished game for a room code",
                "parameters": [
                    {"type": "string", "description": "Room code", "name": "code", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.GameResult"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/leaderboard": {
            "get": {
                "produces": ["application/json"],
                "summary": "Best final scores across games",
                "parameters": [
                    {"type": "integer", "description": "Entries to return (1-100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/cache.LeaderboardEntry"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "cache.LeaderboardEntry": {
            "type": "object",
            "properties": {
                "playerId": {"type": "string"},
                "name": {"type": "string"},
                "score": {"type": "number"},
                "rank": {"type": "integer"}
            }
        },
        "model.GameListing": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "host_name": {"type": "string"},
                "player_count": {"type": "integer"},
                "max_players": {"type": "integer"}
            }
        },
        "model.GamesListPayload": {
            "type": "object",
            "properties": {
                "games": {"type": "array", "items": {"$ref": "#/definitions/model.GameListing"}}
            }
        },
        "model.ResultPlayer": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "score": {"type": "number"}
            }
        },
        "model.GameResult": {
            "type": "object",
            "properties": {
                "roomCode": {"type": "string"},
                "players": {"type": "array", "items": {"$ref": "#/definitions/model.ResultPlayer"}},
                "finishedAt": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "Word Rush API",
	Description:      "Real-time multiplayer word game server. Gameplay runs over /ws; these endpoints are read-only.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
