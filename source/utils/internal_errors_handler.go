package utils

import "fmt"

const (
	_ = iota
	CANNOT_CONNECT_TO_MONGODB
	CANNOT_CONNECT_TO_MYSQL
	CANNOT_CONNECT_TO_REDIS
	STAGES_CANNOT_SEED
	STAGES_CANNOT_LIST
	STAGES_CANNOT_CREATE
	STAGES_CANNOT_UPDATE
	STAGES_CANNOT_DELETE
	STAGES_CANNOT_REORDER
	STAGES_INVALID_REQUEST_DATA
	LEADS_INVALID_REQUEST_DATA
	LEADS_CANNOT_LIST
	LEADS_CANNOT_GET
	LEADS_CANNOT_CREATE
	LEADS_CANNOT_UPDATE
	LEADS_CANNOT_MOVE
	LEADS_CANNOT_DELETE
	USERS_CANNOT_LIST
	AUTH_CANNOT_VALIDATE_TOKEN
)

func SendInternalError(internalErrorCode int) string {
	return fmt.Sprintf("Internal server error. Please try again later (Code: %d)", internalErrorCode)
}
