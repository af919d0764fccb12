package graph

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/teakb/teakb/internal/types"
)

// MockCall represents a recorded method call on the mock graph client.
type MockCall struct {
	Method    string
	Args      []interface{}
	Timestamp time.Time
}

// MockClient is an in-memory implementation of Client for testing.
// The write path is functional: it interprets the statement shapes the
// ingest engine and CRUD layer emit against an in-memory graph, with
// transactional staging so a failed work function leaves no trace. The
// read path (Query) returns scripted results like a conventional mock.
type MockClient struct {
	mu sync.Mutex

	connected  bool
	nodes      map[string]*mockNode
	rels       []mockRel
	calls      []MockCall
	nextNodeID int
	nextRelID  int

	// Configurable responses
	queryResults []QueryResult
	queryError   error
	connectError error
	writeErrors  []error
}

// mockNode represents a stored node.
type mockNode struct {
	ID    string
	Label string
	Props map[string]any
}

// mockRel represents a stored relationship.
type mockRel struct {
	ID    string
	From  string
	To    string
	Type  string
	Props map[string]any
}

// Statement shapes the mock understands. These mirror the templates built by
// the ingest engine and the CRUD layer; values always arrive as parameters.
var (
	mergeNodeRe  = regexp.MustCompile(`^MERGE \(n:(\w+) \{(\w+): \$unique_val\}\) SET n \+= \$props RETURN elementId\(n\) AS node_id$`)
	relExistsRe  = regexp.MustCompile(`^MATCH \(a\)-\[r:(\w+)\]->\(b\) WHERE elementId\(a\) = \$start_id AND elementId\(b\) = \$end_id.* RETURN count\(r\) > 0 AS exist$`)
	relMergeRe   = regexp.MustCompile(`^MATCH \(a\) WHERE elementId\(a\) = \$start_id MATCH \(b\) WHERE elementId\(b\) = \$end_id MERGE \(a\)-\[r:(\w+)(?: \{[^}]*\})?\]->\(b\) RETURN elementId\(r\) AS rel_id$`)
	nodeExistsRe = regexp.MustCompile(`^MATCH \(n:(\w+) \{(\w+): \$unique_val\}\) RETURN count\(n\) > 0 AS exist$`)
	nodeUpdateRe = regexp.MustCompile(`^MATCH \(n:(\w+) \{(\w+): \$unique_val\}\) SET n \+= \$update_props RETURN elementId\(n\) AS node_id$`)
)

// NewMockClient creates a new mock graph client for testing.
func NewMockClient() *MockClient {
	return &MockClient{
		nodes:      make(map[string]*mockNode),
		rels:       make([]mockRel, 0),
		calls:      make([]MockCall, 0),
		nextNodeID: 1,
		nextRelID:  1,
	}
}

func (m *MockClient) record(method string, args ...interface{}) {
	m.calls = append(m.calls, MockCall{
		Method:    method,
		Args:      args,
		Timestamp: time.Now(),
	})
}

// Connect records the call and simulates connection.
func (m *MockClient) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("Connect")
	if m.connectError != nil {
		return m.connectError
	}
	m.connected = true
	return nil
}

// Close records the call and simulates disconnection. Idempotent.
func (m *MockClient) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("Close")
	m.connected = false
	return nil
}

// Health reports connection state.
func (m *MockClient) Health(ctx context.Context) types.HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return types.Unhealthy("not connected")
	}
	return types.Healthy("mock graph client")
}

// Query records the call and returns the next scripted result.
func (m *MockClient) Query(ctx context.Context, cypher string, params map[string]any) (QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("Query", cypher, params)

	if !m.connected {
		return QueryResult{}, types.NewError(ErrCodeGraphNotConnected, "not connected")
	}
	if m.queryError != nil {
		return QueryResult{}, m.queryError
	}

	if len(m.queryResults) > 0 {
		result := m.queryResults[0]
		m.queryResults = m.queryResults[1:]
		return result, nil
	}

	return QueryResult{
		Records: []map[string]any{},
		Columns: []string{},
	}, nil
}

// ExecuteWrite runs work against a staged copy of the graph and commits the
// copy only when work succeeds. Injected write errors fail the transaction
// before the work function runs.
func (m *MockClient) ExecuteWrite(ctx context.Context, work func(ctx context.Context, tx Tx) error) error {
	m.mu.Lock()
	m.record("ExecuteWrite")

	if !m.connected {
		m.mu.Unlock()
		return types.NewError(ErrCodeGraphNotConnected, "not connected")
	}

	if len(m.writeErrors) > 0 {
		err := m.writeErrors[0]
		m.writeErrors = m.writeErrors[1:]
		if err != nil {
			m.mu.Unlock()
			return err
		}
	}

	tx := &mockTx{
		client:     m,
		nodes:      cloneNodes(m.nodes),
		rels:       cloneRels(m.rels),
		nextNodeID: m.nextNodeID,
		nextRelID:  m.nextRelID,
	}
	m.mu.Unlock()

	if err := work(ctx, tx); err != nil {
		return err
	}

	m.mu.Lock()
	m.nodes = tx.nodes
	m.rels = tx.rels
	m.nextNodeID = tx.nextNodeID
	m.nextRelID = tx.nextRelID
	m.mu.Unlock()
	return nil
}

// mockTx interprets engine statement shapes against staged state.
type mockTx struct {
	client     *MockClient
	nodes      map[string]*mockNode
	rels       []mockRel
	nextNodeID int
	nextRelID  int
}

// Run dispatches on the statement shape.
func (t *mockTx) Run(ctx context.Context, cypher string, params map[string]any) (QueryResult, error) {
	cypher = strings.TrimSpace(cypher)

	if mm := mergeNodeRe.FindStringSubmatch(cypher); mm != nil {
		return t.mergeNode(mm[1], mm[2], params)
	}
	if mm := relExistsRe.FindStringSubmatch(cypher); mm != nil {
		return t.relExists(mm[1], params)
	}
	if mm := relMergeRe.FindStringSubmatch(cypher); mm != nil {
		return t.mergeRel(mm[1], params)
	}
	if mm := nodeExistsRe.FindStringSubmatch(cypher); mm != nil {
		return t.nodeExists(mm[1], mm[2], params)
	}
	if mm := nodeUpdateRe.FindStringSubmatch(cypher); mm != nil {
		return t.updateNode(mm[1], mm[2], params)
	}

	return QueryResult{}, types.NewError(ErrCodeGraphInvalidQuery,
		fmt.Sprintf("mock does not understand statement: %s", cypher))
}

func (t *mockTx) findByKey(label, key string, value any) *mockNode {
	for _, n := range t.nodes {
		if n.Label == label && reflect.DeepEqual(n.Props[key], value) {
			return n
		}
	}
	return nil
}

func (t *mockTx) mergeNode(label, key string, params map[string]any) (QueryResult, error) {
	uniqueVal := params["unique_val"]
	props, _ := params["props"].(map[string]any)

	node := t.findByKey(label, key, uniqueVal)
	if node == nil {
		node = &mockNode{
			ID:    fmt.Sprintf("mock-node-%d", t.nextNodeID),
			Label: label,
			Props: map[string]any{key: uniqueVal},
		}
		t.nextNodeID++
		t.nodes[node.ID] = node
	}
	for k, v := range props {
		node.Props[k] = v
	}

	return singleRecord("node_id", node.ID), nil
}

// relProps collects the property bindings (rp_ prefixed parameters) of a
// relationship statement back into a property map.
func relProps(params map[string]any) map[string]any {
	props := map[string]any{}
	for k, v := range params {
		if name, ok := strings.CutPrefix(k, "rp_"); ok {
			props[name] = v
		}
	}
	return props
}

func (t *mockTx) relExists(relType string, params map[string]any) (QueryResult, error) {
	props := relProps(params)
	for _, r := range t.rels {
		if r.From == params["start_id"] && r.To == params["end_id"] && r.Type == relType &&
			propsMatch(r.Props, props) {
			return singleRecord("exist", true), nil
		}
	}
	return singleRecord("exist", false), nil
}

func (t *mockTx) mergeRel(relType string, params map[string]any) (QueryResult, error) {
	from, _ := params["start_id"].(string)
	to, _ := params["end_id"].(string)

	if _, ok := t.nodes[from]; !ok {
		return QueryResult{}, types.NewError(ErrCodeGraphNodeNotFound,
			fmt.Sprintf("start node not found: %s", from))
	}
	if _, ok := t.nodes[to]; !ok {
		return QueryResult{}, types.NewError(ErrCodeGraphNodeNotFound,
			fmt.Sprintf("end node not found: %s", to))
	}

	// Match by bound-property subset, the way MERGE with an inline property
	// map matches: extra properties on an existing edge do not make it
	// distinct. Must stay consistent with relExists.
	props := relProps(params)
	for _, r := range t.rels {
		if r.From == from && r.To == to && r.Type == relType && propsMatch(r.Props, props) {
			return singleRecord("rel_id", r.ID), nil
		}
	}

	rel := mockRel{
		ID:    fmt.Sprintf("mock-rel-%d", t.nextRelID),
		From:  from,
		To:    to,
		Type:  relType,
		Props: props,
	}
	t.nextRelID++
	t.rels = append(t.rels, rel)
	return singleRecord("rel_id", rel.ID), nil
}

func (t *mockTx) nodeExists(label, key string, params map[string]any) (QueryResult, error) {
	exists := t.findByKey(label, key, params["unique_val"]) != nil
	return singleRecord("exist", exists), nil
}

func (t *mockTx) updateNode(label, key string, params map[string]any) (QueryResult, error) {
	props, _ := params["update_props"].(map[string]any)
	node := t.findByKey(label, key, params["unique_val"])
	if node == nil {
		return QueryResult{Records: []map[string]any{}}, nil
	}
	for k, v := range props {
		node.Props[k] = v
	}
	return singleRecord("node_id", node.ID), nil
}

// propsMatch reports whether every key/value in want is present in have.
func propsMatch(have, want map[string]any) bool {
	for k, v := range want {
		if !reflect.DeepEqual(have[k], v) {
			return false
		}
	}
	return true
}

func singleRecord(column string, value any) QueryResult {
	return QueryResult{
		Records: []map[string]any{{column: value}},
		Columns: []string{column},
	}
}

// CreateNode creates a node directly in mock state.
func (m *MockClient) CreateNode(ctx context.Context, label string, props map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("CreateNode", label, props)
	if !m.connected {
		return "", types.NewError(ErrCodeGraphNotConnected, "not connected")
	}

	node := &mockNode{
		ID:    fmt.Sprintf("mock-node-%d", m.nextNodeID),
		Label: label,
		Props: cloneProps(props),
	}
	m.nextNodeID++
	m.nodes[node.ID] = node
	return node.ID, nil
}

// MergeNode performs a match-or-create by label and unique key.
func (m *MockClient) MergeNode(ctx context.Context, label, uniqueKey string, props map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("MergeNode", label, uniqueKey, props)
	if !m.connected {
		return "", types.NewError(ErrCodeGraphNotConnected, "not connected")
	}

	for _, n := range m.nodes {
		if n.Label == label && reflect.DeepEqual(n.Props[uniqueKey], props[uniqueKey]) {
			for k, v := range props {
				n.Props[k] = v
			}
			return n.ID, nil
		}
	}

	node := &mockNode{
		ID:    fmt.Sprintf("mock-node-%d", m.nextNodeID),
		Label: label,
		Props: cloneProps(props),
	}
	m.nextNodeID++
	m.nodes[node.ID] = node
	return node.ID, nil
}

// CreateRelationship creates a relationship directly in mock state.
func (m *MockClient) CreateRelationship(ctx context.Context, fromID, toID, relType string, props map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("CreateRelationship", fromID, toID, relType, props)
	if !m.connected {
		return "", types.NewError(ErrCodeGraphNotConnected, "not connected")
	}
	if _, ok := m.nodes[fromID]; !ok {
		return "", types.NewError(ErrCodeGraphNodeNotFound,
			fmt.Sprintf("from node not found: %s", fromID))
	}
	if _, ok := m.nodes[toID]; !ok {
		return "", types.NewError(ErrCodeGraphNodeNotFound,
			fmt.Sprintf("to node not found: %s", toID))
	}

	rel := mockRel{
		ID:    fmt.Sprintf("mock-rel-%d", m.nextRelID),
		From:  fromID,
		To:    toID,
		Type:  relType,
		Props: cloneProps(props),
	}
	m.nextRelID++
	m.rels = append(m.rels, rel)
	return rel.ID, nil
}

// DeleteNode removes a node; without cascade it fails when relationships remain.
func (m *MockClient) DeleteNode(ctx context.Context, nodeID string, cascade bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("DeleteNode", nodeID, cascade)
	if !m.connected {
		return types.NewError(ErrCodeGraphNotConnected, "not connected")
	}
	if _, ok := m.nodes[nodeID]; !ok {
		return types.NewError(ErrCodeGraphNodeNotFound,
			fmt.Sprintf("node not found: %s", nodeID))
	}

	attached := false
	remaining := make([]mockRel, 0, len(m.rels))
	for _, r := range m.rels {
		if r.From == nodeID || r.To == nodeID {
			attached = true
			if cascade {
				continue
			}
		}
		remaining = append(remaining, r)
	}

	if attached && !cascade {
		return types.NewError(ErrCodeGraphNodeDeleteFailed,
			"node still has relationships")
	}

	m.rels = remaining
	delete(m.nodes, nodeID)
	return nil
}

// Wipe clears the whole mock store and returns the node count removed.
func (m *MockClient) Wipe(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("Wipe")
	if !m.connected {
		return 0, types.NewError(ErrCodeGraphNotConnected, "not connected")
	}

	deleted := len(m.nodes)
	m.nodes = make(map[string]*mockNode)
	m.rels = make([]mockRel, 0)
	return deleted, nil
}

// SetConnectError configures Connect() to return an error.
func (m *MockClient) SetConnectError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectError = err
}

// SetQueryError configures Query() to return an error.
func (m *MockClient) SetQueryError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryError = err
}

// AddQueryResult adds a scripted result for Query() (FIFO).
func (m *MockClient) AddQueryResult(result QueryResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryResults = append(m.queryResults, result)
}

// FailNextWrites queues err for the next n ExecuteWrite calls.
// Each affected transaction fails before its work function runs.
func (m *MockClient) FailNextWrites(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		m.writeErrors = append(m.writeErrors, err)
	}
}

// NodeCount returns the number of stored nodes.
func (m *MockClient) NodeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.nodes)
}

// RelationshipCount returns the number of stored relationships.
func (m *MockClient) RelationshipCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rels)
}

// NodeProps returns the property map of a node by element ID, or nil.
func (m *MockClient) NodeProps(nodeID string) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.nodes[nodeID]; ok {
		return cloneProps(n.Props)
	}
	return nil
}

// CallsByMethod returns all recorded calls to a specific method.
func (m *MockClient) CallsByMethod(method string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]MockCall, 0)
	for _, call := range m.calls {
		if call.Method == method {
			calls = append(calls, call)
		}
	}
	return calls
}

func cloneProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

func cloneNodes(nodes map[string]*mockNode) map[string]*mockNode {
	out := make(map[string]*mockNode, len(nodes))
	for id, n := range nodes {
		out[id] = &mockNode{ID: n.ID, Label: n.Label, Props: cloneProps(n.Props)}
	}
	return out
}

func cloneRels(rels []mockRel) []mockRel {
	out := make([]mockRel, len(rels))
	for i, r := range rels {
		out[i] = mockRel{ID: r.ID, From: r.From, To: r.To, Type: r.Type, Props: cloneProps(r.Props)}
	}
	return out
}
