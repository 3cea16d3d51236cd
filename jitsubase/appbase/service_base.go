package appbase

import (
	"fmt"

	"github.com/jitsucom/airbyte-scenarios/jitsubase/logging"
)

// Service base struct for typical service objects
type Service struct {
	// ID is used as [ID] prefix in log and error messages
	ID string
}

func NewServiceBase(id string) Service {
	return Service{
		ID: id,
	}
}

func (sb *Service) prefixed(format string) string {
	return "[" + sb.ID + "] " + format
}

func (sb *Service) NewError(format string, a ...any) error {
	return fmt.Errorf(sb.prefixed(format), a...)
}

func (sb *Service) Infof(format string, a ...any) {
	logging.Infof(sb.prefixed(format), a...)
}

func (sb *Service) Errorf(format string, a ...any) {
	logging.Errorf(sb.prefixed(format), a...)
}

func (sb *Service) Warnf(format string, a ...any) {
	logging.Warnf(sb.prefixed(format), a...)
}

func (sb *Service) Debugf(format string, a ...any) {
	logging.Debugf(sb.prefixed(format), a...)
}

func (sb *Service) SystemErrorf(format string, a ...any) {
	logging.SystemErrorf(sb.prefixed(format), a...)
}
