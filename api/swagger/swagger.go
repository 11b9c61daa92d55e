package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "StudyShare API",
        "description": "Study-resource sharing platform backend",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Registration and login"},
        {"name": "Resources", "description": "Upload, discovery and ratings"},
        {"name": "Comments", "description": "Resource discussions"},
        {"name": "Users", "description": "Bookmarks"},
        {"name": "Admin", "description": "Moderation and user administration"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a new user",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Invalid payload"},
                    "409": {"description": "User already exists"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/resources": {
            "get": {
                "tags": ["Resources"],
                "summary": "List approved resources",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/resources/upload": {
            "post": {
                "tags": ["Resources"],
                "summary": "Upload a new resource",
                "consumes": ["multipart/form-data"],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Missing file or fields"}
                }
            }
        },
        "/resources/{id}": {
            "get": {
                "tags": ["Resources"],
                "summary": "Get a resource",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Resources"],
                "summary": "Edit an owned resource",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Not the owner"},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Resources"],
                "summary": "Delete an owned resource",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Not the owner"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/resources/my-resources": {
            "get": {
                "tags": ["Resources"],
                "summary": "List the caller's resources",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/resources/{id}/comments": {
            "get": {
                "tags": ["Comments"],
                "summary": "List comments",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "post": {
                "tags": ["Comments"],
                "summary": "Add a comment",
                "responses": {
                    "201": {"description": "Created"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/resources/{id}/ratings": {
            "post": {
                "tags": ["Resources"],
                "summary": "Rate a resource",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Rating out of range"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/users/bookmarks": {
            "get": {
                "tags": ["Users"],
                "summary": "List bookmarked resources",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/users/bookmarks/{resourceId}": {
            "put": {
                "tags": ["Users"],
                "summary": "Toggle a bookmark",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/admin/pending-resources": {
            "get": {
                "tags": ["Admin"],
                "summary": "List pending resources",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Faculty or Admin required"}
                }
            }
        },
        "/admin/approve/{id}": {
            "put": {
                "tags": ["Admin"],
                "summary": "Approve a resource",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Faculty or Admin required"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/admin/reject/{id}": {
            "delete": {
                "tags": ["Admin"],
                "summary": "Reject and remove a resource",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Faculty or Admin required"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/admin/users": {
            "get": {
                "tags": ["Admin"],
                "summary": "List users",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Admin required"}
                }
            }
        },
        "/admin/users/{id}/update-role": {
            "put": {
                "tags": ["Admin"],
                "summary": "Update a user's role",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Admin required"},
                    "404": {"description": "Not found"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{"http"},
	Title:            "StudyShare API",
	Description:      "Study-resource sharing platform backend",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
