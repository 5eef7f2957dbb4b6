package observability

import "lottoledger/domain/entities"

// ResultCode maps an operation error to the label recorded for it
func ResultCode(err error) string {
	if err == nil {
		return CodeOK
	}
	if code := entities.ErrorCodeOf(err); code != "" {
		return string(code)
	}
	return CodeInternal
}
