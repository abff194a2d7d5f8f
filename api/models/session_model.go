package models

import (
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/moyoez/fitsnap-go/tool"
	"github.com/moyoez/fitsnap-go/workflow"
)

// DefaultSessionTTL is how long an untouched workflow stays reachable.
const DefaultSessionTTL = time.Hour

// WorkflowFactory builds a workflow for an identity.
type WorkflowFactory func(identity string) *workflow.Workflow

var (
	workflowSessionMu sync.RWMutex
	workflowSessions  = newSessionCache(DefaultSessionTTL)
	newWorkflow       WorkflowFactory
)

// newSessionCache discards a workflow whenever it leaves the cache, whether closed,
// expired or dropped with the whole cache, so its late completions are ignored.
func newSessionCache(ttl time.Duration) *ttlworker.Cache[string, *workflow.Workflow] {
	return ttlworker.NewCacheOn(ttl, [4]func(string, *workflow.Workflow){
		nil, nil,
		func(sessionId string, wf *workflow.Workflow) {
			if wf == nil {
				return
			}
			wf.Discard()
			tool.DefaultLogger.Infof("[Session] Closed %s", sessionId)
		},
		nil,
	})
}

// InitSessionStore replaces the session cache and the factory used by CreateSession.
// Existing sessions are discarded.
func InitSessionStore(ttl time.Duration, factory WorkflowFactory) {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	workflowSessionMu.Lock()
	defer workflowSessionMu.Unlock()
	workflowSessions.Destroy()
	workflowSessions = newSessionCache(ttl)
	newWorkflow = factory
}

// CreateSession starts a workflow for identity and caches it under its id.
func CreateSession(identity string) *workflow.Workflow {
	workflowSessionMu.Lock()
	defer workflowSessionMu.Unlock()
	factory := newWorkflow
	if factory == nil {
		factory = func(identity string) *workflow.Workflow {
			return workflow.New(identity, nil)
		}
	}
	wf := factory(identity)
	workflowSessions.Set(wf.ID(), wf)
	tool.DefaultLogger.Infof("[Session] Created %s for %s", wf.ID(), wf.Identity())
	return wf
}

// GetSession looks up a workflow and renews its idle timer. An expired one is discarded.
func GetSession(sessionId string) (*workflow.Workflow, bool) {
	workflowSessionMu.Lock()
	defer workflowSessionMu.Unlock()
	wf := workflowSessions.Get(sessionId)
	return wf, wf != nil
}

// CloseSession forgets the workflow. Leaving the cache discards it.
func CloseSession(sessionId string) bool {
	workflowSessionMu.Lock()
	defer workflowSessionMu.Unlock()
	wf, deleted := workflowSessions.GetAndDelete(sessionId)
	return deleted && wf != nil
}
