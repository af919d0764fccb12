package config

import "github.com/teakb/teakb/internal/types"

// Configuration error codes
const (
	ErrCodeConfigLoad       types.ErrorCode = "CONFIG_LOAD_FAILED"
	ErrCodeConfigParse      types.ErrorCode = "CONFIG_PARSE_FAILED"
	ErrCodeConfigValidation types.ErrorCode = "CONFIG_VALIDATION_FAILED"
)
