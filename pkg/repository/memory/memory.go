package memory

import (
	"github.com/taskbridge-dev/taskbridge/pkg/domain/interfaces"
)

// Memory is the in-process fallback repository. It honors every
// contract of the durable backend for the lifetime of the process, but
// mappings are lost on restart.
type Memory struct {
	userMap     *mappingRepository
	usernameMap *mappingRepository
	threadMap   *mappingRepository
}

var _ interfaces.Repository = &Memory{}

// New creates an empty in-memory repository.
func New() *Memory {
	return &Memory{
		userMap:     newMappingRepository(),
		usernameMap: newMappingRepository(),
		threadMap:   newMappingRepository(),
	}
}

func (m *Memory) UserMap() interfaces.MappingRepository {
	return m.userMap
}

func (m *Memory) UsernameMap() interfaces.MappingRepository {
	return m.usernameMap
}

func (m *Memory) ThreadMap() interfaces.MappingRepository {
	return m.threadMap
}

func (m *Memory) Close() error {
	return nil
}
