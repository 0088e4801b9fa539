package utils

import "fmt"

const (
	INVALID_REQUEST_DATA = iota + 1
	INVALID_ID_FORMAT
	INVALID_QUERY_PARAMETER

	CANNOT_LIST_LEADS
	CANNOT_FIND_LEAD
	CANNOT_CREATE_LEAD
	CANNOT_UPDATE_LEAD
	CANNOT_DELETE_LEAD
	CANNOT_RESTORE_LEAD
	CANNOT_LIST_LEAD_HISTORY

	CANNOT_LIST_CONTACTS
	CANNOT_FIND_CONTACT
	CANNOT_CREATE_CONTACT
	CANNOT_UPDATE_CONTACT
	CANNOT_DELETE_CONTACT
	CANNOT_RESTORE_CONTACT

	CANNOT_LIST_DEALS
	CANNOT_FIND_DEAL
	CANNOT_CREATE_DEAL
	CANNOT_UPDATE_DEAL
	CANNOT_DELETE_DEAL
	CANNOT_RESTORE_DEAL

	CANNOT_LIST_ACCOUNTS
	CANNOT_FIND_ACCOUNT
	CANNOT_CREATE_ACCOUNT
	CANNOT_UPDATE_ACCOUNT
	CANNOT_DELETE_ACCOUNT
	CANNOT_RESTORE_ACCOUNT

	CANNOT_LIST_DEAL_STAGES
	CANNOT_CREATE_DEAL_STAGE
	CANNOT_UPDATE_DEAL_STAGE
	CANNOT_DELETE_DEAL_STAGE

	CANNOT_FIND_CRM_SETTINGS
	CANNOT_UPDATE_CRM_SETTINGS

	CANNOT_REGISTER_USER
	CANNOT_LOGIN_USER
	CANNOT_CREATE_USER
	CANNOT_LIST_USERS
)

func SendInternalError(internalErrorCode int) string {
	return fmt.Sprintf("An internal server error occurred. Please try again later (Code: %d)", internalErrorCode)
}
