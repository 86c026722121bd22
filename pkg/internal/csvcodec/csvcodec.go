// Package csvcodec 在员工记录与 CSV 表格之间编解码.
//
// 表头固定为 id,nama,nomor,jabatan,departmen,tanggal_masuk,foto,status.
// 解码按表头名取列，列顺序不限，未知列忽略，容忍 UTF-8 BOM.
package csvcodec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yeisme/employeeman/pkg/errs"
	"github.com/yeisme/employeeman/pkg/internal/model"
)

const (
	ColID         = "id"
	ColName       = "nama"
	ColNo         = "nomor"
	ColPosition   = "jabatan"
	ColDepartment = "departmen"
	ColJoinDate   = "tanggal_masuk"
	ColPhoto      = "foto"
	ColStatus     = "status"

	bom = "\ufeff"
)

// Header 导出时写出的表头.
var Header = []string{ColID, ColName, ColNo, ColPosition, ColDepartment, ColJoinDate, ColPhoto, ColStatus}

// requiredColumns 导入时必须出现的列.
var requiredColumns = []string{ColName, ColNo, ColPosition, ColDepartment, ColJoinDate, ColStatus}

var (
	ErrMissingColumn   = errors.New("missing required column")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrFieldCount      = errors.New("wrong number of fields")
	ErrEmptyInput      = errors.New("empty input, header expected")
)

// Row CSV 中的一行. ID 只作参考，导入时忽略.
type Row struct {
	ID         uint
	Name       string
	No         string
	Position   string
	Department string
	JoinDate   model.Date
	Photo      *string
	Status     model.Status
}

// FromEmployee 由员工记录构造行.
func FromEmployee(e *model.Employee) Row {
	return Row{
		ID:         e.ID,
		Name:       e.Name,
		No:         e.No,
		Position:   e.Position,
		Department: e.Department,
		JoinDate:   e.JoinDate,
		Photo:      e.Photo,
		Status:     e.Status,
	}
}

// Employee 转换为待插入的员工记录，不带 ID.
func (r Row) Employee() model.Employee {
	return model.Employee{
		Name:       r.Name,
		No:         r.No,
		Position:   r.Position,
		Department: r.Department,
		JoinDate:   r.JoinDate,
		Photo:      r.Photo,
		Status:     r.Status,
	}
}

func (r Row) record() []string {
	photo := ""
	if r.Photo != nil {
		photo = *r.Photo
	}

	id := ""
	if r.ID != 0 {
		id = strconv.FormatUint(uint64(r.ID), 10)
	}

	return []string{
		id, r.Name, r.No, r.Position, r.Department,
		r.JoinDate.String(), photo, strings.ToLower(string(r.Status)),
	}
}

// Encoder 流式写出 CSV，首次写入前输出表头.
type Encoder struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewEncoder 创建编码器.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: csv.NewWriter(w)}
}

// WriteHeader 输出表头，重复调用无效.
func (e *Encoder) WriteHeader() error {
	if e.wroteHeader {
		return nil
	}

	e.wroteHeader = true

	return e.w.Write(Header)
}

// Encode 写出若干行.
func (e *Encoder) Encode(rows ...Row) error {
	if err := e.WriteHeader(); err != nil {
		return err
	}

	for _, r := range rows {
		if err := e.w.Write(r.record()); err != nil {
			return err
		}
	}

	return nil
}

// Flush 刷新缓冲并返回写入过程中的错误.
func (e *Encoder) Flush() error {
	if err := e.WriteHeader(); err != nil {
		return err
	}

	e.w.Flush()

	return e.w.Error()
}

// Encode 把全部行写成完整的 CSV 文档.
func Encode(w io.Writer, rows []Row) error {
	enc := NewEncoder(w)
	if err := enc.Encode(rows...); err != nil {
		return err
	}

	return enc.Flush()
}

// Decode 读取完整的 CSV 文档，要么返回全部行，要么返回 *errs.ParseError.
func Decode(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &errs.ParseError{Err: ErrEmptyInput}
	}

	if err != nil {
		return nil, &errs.ParseError{Err: err}
	}

	index, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	rows := []Row{}

	for n := 1; ; n++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, &errs.ParseError{Row: n, Err: err}
		}

		if len(rec) != len(header) {
			return nil, &errs.ParseError{
				Row: n,
				Err: fmt.Errorf("%w: expected %d, got %d", ErrFieldCount, len(header), len(rec)),
			}
		}

		row, err := parseRow(n, rec, index)
		if err != nil {
			return nil, err
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// headerIndex 建立 列名 -> 下标 的映射并检查必需列.
func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))

	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, bom)
		}

		name := strings.ToLower(strings.TrimSpace(h))
		if name == "" {
			continue
		}

		if _, dup := index[name]; dup {
			return nil, &errs.ParseError{Column: name, Err: ErrDuplicateColumn}
		}

		index[name] = i
	}

	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, &errs.ParseError{Column: col, Err: ErrMissingColumn}
		}
	}

	return index, nil
}

func parseRow(n int, rec []string, index map[string]int) (Row, error) {
	get := func(col string) string {
		i, ok := index[col]
		if !ok {
			return ""
		}

		return rec[i]
	}
	trimmed := func(col string) string { return strings.TrimSpace(get(col)) }

	// 文本列原样保留，首尾空白也属于值的一部分
	row := Row{
		Name:       get(ColName),
		No:         get(ColNo),
		Position:   get(ColPosition),
		Department: get(ColDepartment),
	}

	if id, err := strconv.ParseUint(trimmed(ColID), 10, 64); err == nil {
		row.ID = uint(id)
	}

	date, err := model.ParseDate(trimmed(ColJoinDate))
	if err != nil {
		return Row{}, &errs.ParseError{Row: n, Column: ColJoinDate, Err: err}
	}

	row.JoinDate = date

	status, err := model.ParseStatus(trimmed(ColStatus))
	if err != nil {
		return Row{}, &errs.ParseError{Row: n, Column: ColStatus, Err: err}
	}

	row.Status = status

	if photo := trimmed(ColPhoto); photo != "" {
		row.Photo = &photo
	}

	return row, nil
}
