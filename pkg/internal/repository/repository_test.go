package repository_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/yeisme/employeeman/pkg/errs"
	"github.com/yeisme/employeeman/pkg/internal/model"
	"github.com/yeisme/employeeman/pkg/internal/repository"
	"github.com/yeisme/employeeman/pkg/internal/storage/db/dbtest"
)

func intp(v int) *int { return &v }

func seed(t *testing.T, repo *repository.EmployeeRepository, rows ...model.Employee) []model.Employee {
	t.Helper()

	out := make([]model.Employee, 0, len(rows))

	for i := range rows {
		e := rows[i]
		if e.JoinDate.IsZero() {
			e.JoinDate = model.NewDate(2024, 1, 2)
		}

		if err := repo.Create(context.Background(), &e); err != nil {
			t.Fatalf("seed: %v", err)
		}

		out = append(out, e)
	}

	return out
}

func sample() []model.Employee {
	return []model.Employee{
		{Name: "andi wijaya", No: "E1", Position: "Engineer", Department: "IT", Status: model.StatusTetap},
		{Name: "Budi Santoso", No: "E2", Position: "Manager", Department: "Finance", Status: model.StatusProbation},
		{Name: "citra_lestari", No: "E3", Position: "engineer", Department: "it ops", Status: model.StatusKontrak},
		{Name: "Dewi 100%", No: "E4", Position: "Analyst", Department: "Finance", Status: model.StatusTetap},
	}
}

func names(rows []model.Employee) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}

	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// TestFindFiltersCaseInsensitive 子串过滤不区分大小写.
func TestFindFiltersCaseInsensitive(t *testing.T) {
	repo := repository.NewEmployeeRepository(dbtest.New(t).DB)
	seed(t, repo, sample()...)

	q, err := repository.ListParams{Position: "ENGINEER"}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	rows, meta, err := repo.Find(context.Background(), q)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	if meta.Total != 2 || len(rows) != 2 {
		t.Fatalf("expected 2 engineers, got total=%d rows=%v", meta.Total, names(rows))
	}
}

// TestFindEscapesWildcards % 与 _ 按字面量匹配.
func TestFindEscapesWildcards(t *testing.T) {
	repo := repository.NewEmployeeRepository(dbtest.New(t).DB)
	seed(t, repo, sample()...)

	for input, want := range map[string][]string{
		"%":  {"Dewi 100%"},
		"_":  {"citra_lestari"},
		"a_": {"citra_lestari"},
	} {
		q, _ := repository.ListParams{Name: input}.Normalize()

		rows, _, err := repo.Find(context.Background(), q)
		if err != nil {
			t.Fatalf("Find(%q): %v", input, err)
		}

		if !equal(names(rows), want) {
			t.Errorf("Find(%q) = %v, want %v", input, names(rows), want)
		}
	}
}

// TestFindStatusSetAndSort 状态集合过滤，状态按声明顺序排序.
func TestFindStatusSetAndSort(t *testing.T) {
	repo := repository.NewEmployeeRepository(dbtest.New(t).DB)
	seed(t, repo, sample()...)

	q, err := repository.ListParams{Status: "TETAP,kontrak", SortBy: "status", SortOrder: "asc"}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	rows, meta, err := repo.Find(context.Background(), q)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	want := []string{"citra_lestari", "andi wijaya", "Dewi 100%"}
	if meta.Total != 3 || !equal(names(rows), want) {
		t.Fatalf("got %v (total %d), want %v", names(rows), meta.Total, want)
	}

	q.Desc = true
	rows, _, _ = repo.Find(context.Background(), q)

	want = []string{"Dewi 100%", "andi wijaya", "citra_lestari"}
	if !equal(names(rows), want) {
		t.Fatalf("desc got %v, want %v", names(rows), want)
	}
}

// TestFindSortByNameIgnoresCase 名称排序不区分大小写.
func TestFindSortByNameIgnoresCase(t *testing.T) {
	repo := repository.NewEmployeeRepository(dbtest.New(t).DB)
	seed(t, repo, sample()...)

	q, _ := repository.ListParams{SortBy: "name"}.Normalize()

	rows, _, err := repo.Find(context.Background(), q)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	want := []string{"andi wijaya", "Budi Santoso", "citra_lestari", "Dewi 100%"}
	if !equal(names(rows), want) {
		t.Fatalf("got %v, want %v", names(rows), want)
	}
}

// TestFindPagination 分页元信息与越界页.
func TestFindPagination(t *testing.T) {
	repo := repository.NewEmployeeRepository(dbtest.New(t).DB)
	seed(t, repo, sample()...)

	q, _ := repository.ListParams{Page: intp(2), Limit: intp(3)}.Normalize()

	rows, meta, err := repo.Find(context.Background(), q)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	if len(rows) != 1 || meta != (repository.Meta{Total: 4, Page: 2, Limit: 3, TotalPages: 2}) {
		t.Fatalf("unexpected page: rows=%v meta=%+v", names(rows), meta)
	}

	q.Page = 9

	rows, meta, err = repo.Find(context.Background(), q)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	if rows == nil || len(rows) != 0 || meta.Total != 4 || meta.Page != 9 {
		t.Fatalf("page past end: rows=%v meta=%+v", rows, meta)
	}
}

// TestFindWalksEveryPage 逐页遍历，页大小之和等于总数，除最后一页外每页恰好 limit 条.
func TestFindWalksEveryPage(t *testing.T) {
	cases := []struct {
		name       string
		rows       int
		department string
		limit      int
		pages      int
	}{
		{"it department of fifteen", 15, "IT", 0, 2},
		{"exact multiple", 12, "", 4, 3},
		{"single partial page", 3, "", 10, 1},
		{"one per page", 5, "", 1, 5},
		{"empty table", 0, "", 5, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			repo := repository.NewEmployeeRepository(dbtest.New(t).DB)

			for i := range c.rows {
				seed(t, repo, model.Employee{
					Name: fmt.Sprintf("Employee %02d", i), No: fmt.Sprintf("E%d", i),
					Position: "Staff", Department: "IT", Status: model.StatusTetap,
				})
			}

			params := repository.ListParams{Department: c.department}
			if c.limit > 0 {
				params.Limit = intp(c.limit)
			}

			base, err := params.Normalize()
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}

			seen := map[uint]bool{}
			sum := 0

			first, meta, err := repo.Find(context.Background(), base)
			if err != nil {
				t.Fatalf("Find: %v", err)
			}

			if meta.Total != int64(c.rows) || meta.TotalPages != c.pages {
				t.Fatalf("meta = %+v, want total %d pages %d", meta, c.rows, c.pages)
			}

			if c.department == "IT" && len(first) != repository.DefaultLimit {
				t.Fatalf("first page holds %d rows, want %d", len(first), repository.DefaultLimit)
			}

			for page := 1; page <= meta.TotalPages; page++ {
				q := base
				q.Page = page

				rows, _, err := repo.Find(context.Background(), q)
				if err != nil {
					t.Fatalf("Find page %d: %v", page, err)
				}

				if page < meta.TotalPages && len(rows) != q.Limit {
					t.Fatalf("page %d holds %d rows, want %d", page, len(rows), q.Limit)
				}

				for _, r := range rows {
					if seen[r.ID] {
						t.Fatalf("row %d appears on two pages", r.ID)
					}

					seen[r.ID] = true
				}

				sum += len(rows)
			}

			if sum != c.rows {
				t.Fatalf("pages hold %d rows, want %d", sum, c.rows)
			}
		})
	}
}

// TestFindHugePageIsEmpty 超大页码不溢出，返回空列表.
func TestFindHugePageIsEmpty(t *testing.T) {
	repo := repository.NewEmployeeRepository(dbtest.New(t).DB)
	seed(t, repo, sample()...)

	for _, page := range []int{5, math.MaxInt / 2, math.MaxInt/2 + 1, math.MaxInt} {
		q, err := repository.ListParams{Page: intp(page), Limit: intp(2)}.Normalize()
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}

		rows, meta, err := repo.Find(context.Background(), q)
		if err != nil {
			t.Fatalf("Find page %d: %v", page, err)
		}

		if rows == nil || len(rows) != 0 || meta.Total != 4 || meta.TotalPages != 2 {
			t.Fatalf("page %d: rows=%v meta=%+v", page, names(rows), meta)
		}
	}
}

// TestFindMaxLimit 上限内的 limit 正常返回，超过上限为 ValidationError.
func TestFindMaxLimit(t *testing.T) {
	repo := repository.NewEmployeeRepository(dbtest.New(t).DB)
	seed(t, repo, sample()...)

	q, err := repository.ListParams{Limit: intp(repository.MaxLimit)}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	rows, meta, err := repo.Find(context.Background(), q)
	if err != nil || len(rows) != 4 || meta.TotalPages != 1 {
		t.Fatalf("Find: rows=%v meta=%+v err=%v", names(rows), meta, err)
	}

	for _, limit := range []int{repository.MaxLimit + 1, 1 << 50, math.MaxInt} {
		_, err := repository.ListParams{Limit: intp(limit)}.Normalize()

		var ve *errs.ValidationError
		if !errors.As(err, &ve) || ve.Fields["limit"] == "" {
			t.Fatalf("limit %d: expected limit ValidationError, got %v", limit, err)
		}
	}
}

// TestNormalizeRejectsBadParams 非法参数合并为一个 ValidationError.
func TestNormalizeRejectsBadParams(t *testing.T) {
	_, err := repository.ListParams{
		Page: intp(0), Limit: intp(-1), SortBy: "salary", SortOrder: "up", Status: "tetap,fired",
	}.Normalize()

	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	for _, f := range []string{"page", "limit", "sort_by", "sort_order", "status"} {
		if _, ok := ve.Fields[f]; !ok {
			t.Errorf("expected field %s in %v", f, ve.Fields)
		}
	}
}

// TestNormalizeDefaults 默认第 1 页，每页 10 条，createdAt 为 created_at 的别名.
func TestNormalizeDefaults(t *testing.T) {
	q, err := repository.ListParams{SortBy: "createdAt", SortOrder: "DESC"}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if q.Page != 1 || q.Limit != 10 || q.SortBy != repository.SortByCreatedAt || !q.Desc || q.Statuses != nil {
		t.Fatalf("unexpected query: %+v", q)
	}
}

// TestNewMeta totalPages 向上取整.
func TestNewMeta(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		pages int
	}{{0, 10, 0}, {1, 10, 1}, {10, 10, 1}, {11, 10, 2}}

	for _, c := range cases {
		if got := repository.NewMeta(c.total, 1, c.limit).TotalPages; got != c.pages {
			t.Errorf("NewMeta(%d, %d).TotalPages = %d, want %d", c.total, c.limit, got, c.pages)
		}
	}
}

// TestDepartments 去重、过滤并升序.
func TestDepartments(t *testing.T) {
	repo := repository.NewEmployeeRepository(dbtest.New(t).DB)
	seed(t, repo, sample()...)

	all, err := repo.Departments(context.Background(), "")
	if err != nil {
		t.Fatalf("Departments: %v", err)
	}

	if !equal(all, []string{"Finance", "IT", "it ops"}) {
		t.Fatalf("unexpected departments: %v", all)
	}

	it, _ := repo.Departments(context.Background(), "IT")
	if !equal(it, []string{"IT", "it ops"}) {
		t.Fatalf("unexpected filtered departments: %v", it)
	}
}

// TestGetDeleteNotFound 不存在的记录返回 ErrNotFound.
func TestGetDeleteNotFound(t *testing.T) {
	repo := repository.NewEmployeeRepository(dbtest.New(t).DB)

	if _, err := repo.Get(context.Background(), 42); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("Get: expected ErrNotFound, got %v", err)
	}

	if err := repo.Delete(context.Background(), 42); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("Delete: expected ErrNotFound, got %v", err)
	}
}

// TestEachOrdersByID 分批遍历按 id 升序.
func TestEachOrdersByID(t *testing.T) {
	repo := repository.NewEmployeeRepository(dbtest.New(t).DB)
	seeded := seed(t, repo, sample()...)

	var ids []uint

	err := repo.Each(context.Background(), 3, func(rows []model.Employee) error {
		for _, r := range rows {
			ids = append(ids, r.ID)
		}

		return nil
	})
	if err != nil {
		t.Fatalf("Each: %v", err)
	}

	if len(ids) != len(seeded) {
		t.Fatalf("expected %d rows, got %d", len(seeded), len(ids))
	}

	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Fatalf("ids not ascending: %v", ids)
		}
	}
}

// TestMediaFind 三种选择方式与所属查询.
func TestMediaFind(t *testing.T) {
	repo := repository.NewMediaRepository(dbtest.New(t).DB)
	ctx := context.Background()

	for i, fn := range []string{"u1-a.png", "u2-b.png", "u3-c.png"} {
		m := &model.Media{UUID: fn[:2], Name: fn[3:], FileName: fn, Disk: "local", Size: 1}
		if i < 2 {
			m.SetOwner(model.EmployeeOwner(7))
		}

		if err := repo.Create(ctx, m); err != nil {
			t.Fatalf("Create: %v", err)
		}

		if m.Manipulations == nil {
			t.Fatal("expected JSON maps to be initialised")
		}
	}

	owned, err := repo.Find(ctx, repository.MediaFilter{Owner: model.EmployeeOwner(7)})
	if err != nil || len(owned) != 2 {
		t.Fatalf("owner find: %v %d", err, len(owned))
	}

	byUUID, _ := repo.Find(ctx, repository.MediaFilter{UUID: "u3"})
	if len(byUUID) != 1 || byUUID[0].FileName != "u3-c.png" {
		t.Fatalf("uuid find: %+v", byUUID)
	}

	if _, err := repo.ByFileName(ctx, "missing"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := repo.Find(ctx, repository.MediaFilter{}); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
