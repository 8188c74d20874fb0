//go:build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
)

// listEnvelope mirrors the task list response shape.
type listEnvelope struct {
	Tasks         []map[string]any `json:"tasks"`
	TotalCount    int              `json:"total_count"`
	FilteredCount int              `json:"filtered_count"`
}

func tasksURL(suffix string) string {
	return testServer.URL + "/api/" + demoOwner + "/tasks" + suffix
}

func listTasks(t *testing.T, query string) listEnvelope {
	t.Helper()
	resp, err := http.Get(tasksURL(query))
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", resp.StatusCode)
	}
	var env listEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	return env
}

func createTask(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	raw, _ := json.Marshal(body)
	resp, err := http.Post(tasksURL(""), "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	var created map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	return created
}

func TestTaskCRUDLifecycle(t *testing.T) {
	// Clean before this test
	cleanDB(testPool)

	// 1. List tasks — should be empty
	env := listTasks(t, "")
	if env.TotalCount != 0 || len(env.Tasks) != 0 {
		t.Fatalf("expected empty list, got %d tasks (total %d)", len(env.Tasks), env.TotalCount)
	}

	// 2. Create a task
	created := createTask(t, map[string]any{
		"title":       "Write integration tests",
		"description": "cover the REST surface",
		"priority":    "high",
	})
	if created["title"] != "Write integration tests" {
		t.Fatalf("expected created title, got %v", created["title"])
	}
	if created["priority"] != "high" {
		t.Fatalf("expected priority 'high', got %v", created["priority"])
	}
	if created["completed"] != false {
		t.Fatalf("new task must start incomplete, got %v", created["completed"])
	}
	if created["user_id"] != demoOwner {
		t.Fatalf("expected owner %q, got %v", demoOwner, created["user_id"])
	}
	id := int64(created["id"].(float64))
	if id == 0 {
		t.Fatal("expected non-zero task id")
	}
	idStr := strconv.FormatInt(id, 10)

	// 3. Get the task by ID
	resp, err := http.Get(tasksURL("/" + idStr))
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", resp.StatusCode)
	}
	var fetched map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&fetched); err != nil {
		t.Fatalf("decode fetched: %v", err)
	}
	if int64(fetched["id"].(float64)) != id {
		t.Fatalf("expected id %d, got %v", id, fetched["id"])
	}

	// 4. Update the title
	upBody, _ := json.Marshal(map[string]any{"title": "Write more tests"})
	req, _ := http.NewRequest(http.MethodPut, tasksURL("/"+idStr), bytes.NewReader(upBody))
	req.Header.Set("Content-Type", "application/json")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	defer func() { _ = resp2.Body.Close() }()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", resp2.StatusCode)
	}
	var updated map[string]any
	if err := json.NewDecoder(resp2.Body).Decode(&updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	if updated["title"] != "Write more tests" {
		t.Fatalf("expected updated title, got %v", updated["title"])
	}

	// 5. Mark complete
	doneBody, _ := json.Marshal(map[string]any{"completed": true})
	req2, _ := http.NewRequest(http.MethodPatch, tasksURL("/"+idStr+"/complete"), bytes.NewReader(doneBody))
	req2.Header.Set("Content-Type", "application/json")
	resp3, err := http.DefaultClient.Do(req2)
	if err != nil {
		t.Fatalf("complete task: %v", err)
	}
	defer func() { _ = resp3.Body.Close() }()
	if resp3.StatusCode != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d", resp3.StatusCode)
	}
	var done map[string]any
	if err := json.NewDecoder(resp3.Body).Decode(&done); err != nil {
		t.Fatalf("decode complete: %v", err)
	}
	if done["completed"] != true {
		t.Fatalf("expected completed true, got %v", done["completed"])
	}

	// 6. Delete the task
	req3, _ := http.NewRequest(http.MethodDelete, tasksURL("/"+idStr), http.NoBody)
	resp4, err := http.DefaultClient.Do(req3)
	if err != nil {
		t.Fatalf("delete task: %v", err)
	}
	defer func() { _ = resp4.Body.Close() }()
	if resp4.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp4.StatusCode)
	}

	// 7. Get deleted task — should be 404
	resp5, err := http.Get(tasksURL("/" + idStr))
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	defer func() { _ = resp5.Body.Close() }()
	if resp5.StatusCode != http.StatusNotFound {
		t.Fatalf("get deleted: expected 404, got %d", resp5.StatusCode)
	}
}

func TestTaskListFilterAndCounts(t *testing.T) {
	cleanDB(testPool)

	createTask(t, map[string]any{"title": "one"})
	createTask(t, map[string]any{"title": "two"})
	done := createTask(t, map[string]any{"title": "three"})

	idStr := strconv.FormatInt(int64(done["id"].(float64)), 10)
	body, _ := json.Marshal(map[string]any{"completed": true})
	req, _ := http.NewRequest(http.MethodPatch, tasksURL("/"+idStr+"/complete"), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("complete task: %v", err)
	}
	_ = resp.Body.Close()

	env := listTasks(t, "?status=completed")
	if env.TotalCount != 3 {
		t.Fatalf("expected total_count 3, got %d", env.TotalCount)
	}
	if env.FilteredCount != 1 || len(env.Tasks) != 1 {
		t.Fatalf("expected 1 completed task, got %d", len(env.Tasks))
	}
	if env.Tasks[0]["title"] != "three" {
		t.Fatalf("expected task 'three', got %v", env.Tasks[0]["title"])
	}

	env = listTasks(t, "?status=pending")
	if env.FilteredCount != 2 {
		t.Fatalf("expected 2 pending tasks, got %d", env.FilteredCount)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	// Blank title should return 400
	body, _ := json.Marshal(map[string]any{"title": "   "})
	resp, err := http.Post(tasksURL(""), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create without title: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetNonexistentTask(t *testing.T) {
	resp, err := http.Get(tasksURL("/999999"))
	if err != nil {
		t.Fatalf("get nonexistent: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
