package task

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	domain "github.com/example/task-tracker/domain/task"
)

func newTestTask(id, title string, status domain.Status) domain.Task {
	return domain.Task{
		ID:        id,
		Title:     title,
		Status:    status,
		CreatedAt: time.Now(),
	}
}

func TestRepository_ListPreservesInsertionOrder(t *testing.T) {
	repo := NewRepository()
	repo.Append(newTestTask("c", "third", domain.StatusPending))
	repo.Append(newTestTask("a", "first", domain.StatusDone))
	repo.Append(newTestTask("b", "second", domain.StatusPending))

	tests := []struct {
		name    string
		filter  domain.Status
		wantIDs []string
	}{
		{name: "no filter", filter: "", wantIDs: []string{"c", "a", "b"}},
		{name: "pending", filter: domain.StatusPending, wantIDs: []string{"c", "b"}},
		{name: "done", filter: domain.StatusDone, wantIDs: []string{"a"}},
		{name: "unknown filter returns all", filter: "archived", wantIDs: []string{"c", "a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repo.List(tt.filter)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("List() returned %d tasks, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("List()[%d].ID = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestRepository_FindByID(t *testing.T) {
	repo := NewRepository()
	repo.Append(newTestTask("t1", "Buy milk", domain.StatusPending))

	got, err := repo.FindByID("t1")
	if err != nil {
		t.Fatalf("FindByID() unexpected error: %v", err)
	}
	if got.Title != "Buy milk" {
		t.Errorf("FindByID() title = %q, want %q", got.Title, "Buy milk")
	}

	_, err = repo.FindByID("missing")
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("FindByID() error = %v, want ErrTaskNotFound", err)
	}
}

func TestRepository_ReturnsCopies(t *testing.T) {
	repo := NewRepository()
	file := "report.pdf"
	task := newTestTask("t1", "Report", domain.StatusPending)
	task.File = &file
	repo.Append(task)

	got, _ := repo.FindByID("t1")
	got.Title = "changed"
	*got.File = "changed.pdf"

	again, _ := repo.FindByID("t1")
	if again.Title != "Report" {
		t.Errorf("stored title mutated through returned copy: %q", again.Title)
	}
	if again.File == nil || *again.File != "report.pdf" {
		t.Errorf("stored file mutated through returned copy: %v", again.File)
	}
}

func TestRepository_ToggleStatus(t *testing.T) {
	repo := NewRepository()
	repo.Append(newTestTask("t1", "Toggle me", domain.StatusPending))

	first, err := repo.ToggleStatus("t1")
	if err != nil {
		t.Fatalf("ToggleStatus() unexpected error: %v", err)
	}
	if first.Status != domain.StatusDone {
		t.Errorf("ToggleStatus() status = %q, want %q", first.Status, domain.StatusDone)
	}

	second, _ := repo.ToggleStatus("t1")
	if second.Status != domain.StatusPending {
		t.Errorf("ToggleStatus() twice status = %q, want %q", second.Status, domain.StatusPending)
	}

	if _, err := repo.ToggleStatus("missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("ToggleStatus() error = %v, want ErrTaskNotFound", err)
	}
}

func TestRepository_UpdateRollsBackOnError(t *testing.T) {
	repo := NewRepository()
	repo.Append(newTestTask("t1", "Original", domain.StatusPending))

	_, err := repo.Update("t1", func(t *domain.Task) error {
		t.Title = "Half applied"
		return ErrTitleRequired
	})
	if !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("Update() error = %v, want ErrTitleRequired", err)
	}

	got, _ := repo.FindByID("t1")
	if got.Title != "Original" {
		t.Errorf("Update() applied changes despite error: title = %q", got.Title)
	}
}

func TestRepository_Remove(t *testing.T) {
	repo := NewRepository()
	file := "123-abc-notes.txt"
	withFile := newTestTask("t1", "With file", domain.StatusPending)
	withFile.File = &file
	repo.Append(withFile)
	repo.Append(newTestTask("t2", "Without file", domain.StatusPending))

	tests := []struct {
		name       string
		id         string
		wantHandle *string
		wantErr    error
	}{
		{name: "task with attachment", id: "t1", wantHandle: &file},
		{name: "task without attachment", id: "t2", wantHandle: nil},
		{name: "already removed", id: "t1", wantErr: ErrTaskNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handle, err := repo.Remove(tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Remove() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Remove() unexpected error: %v", err)
			}
			if (handle == nil) != (tt.wantHandle == nil) {
				t.Fatalf("Remove() handle = %v, want %v", handle, tt.wantHandle)
			}
			if handle != nil && *handle != *tt.wantHandle {
				t.Errorf("Remove() handle = %q, want %q", *handle, *tt.wantHandle)
			}
		})
	}

	if repo.Len() != 0 {
		t.Errorf("Len() = %d after removing everything, want 0", repo.Len())
	}
}

func TestRepository_ConcurrentAppend(t *testing.T) {
	repo := NewRepository()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			repo.Append(newTestTask(fmt.Sprintf("t%d", i), "concurrent", domain.StatusPending))
		}(i)
	}
	wg.Wait()

	if repo.Len() != 50 {
		t.Errorf("Len() = %d, want 50", repo.Len())
	}
}
