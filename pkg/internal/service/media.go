package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeisme/employeeman/pkg/errs"
	"github.com/yeisme/employeeman/pkg/internal/model"
	"github.com/yeisme/employeeman/pkg/internal/repository"
	"github.com/yeisme/employeeman/pkg/internal/storage/filestore"
	nlog "github.com/yeisme/employeeman/pkg/log"
	"github.com/yeisme/employeeman/pkg/metrics"
	"github.com/yeisme/employeeman/pkg/queue"
	"github.com/yeisme/employeeman/pkg/tracing"
)

// MediaRegistry 维护上传文件与所属记录的登记表.
type MediaRegistry struct {
	db     *gorm.DB
	media  *repository.MediaRepository
	files  filestore.Store
	events queue.Events
}

// NewMediaRegistry 创建媒体登记服务.
func NewMediaRegistry(db *gorm.DB, files filestore.Store, events queue.Events) *MediaRegistry {
	if events == nil {
		events = queue.Nop{}
	}

	return &MediaRegistry{
		db:     db,
		media:  repository.NewMediaRepository(db),
		files:  files,
		events: events,
	}
}

// RemoveSelector 删除媒体的选择条件，FileName、UUID、OwnerType+OwnerID 恰好使用一种.
type RemoveSelector struct {
	FileName  string
	UUID      string
	OwnerType string
	OwnerID   *uint
}

// filter 校验选择条件并转换为仓储过滤器.
func (s RemoveSelector) filter() (repository.MediaFilter, error) {
	modes := 0
	f := repository.MediaFilter{}

	if s.FileName != "" {
		modes++
		f.FileName = s.FileName
	}

	if s.UUID != "" {
		modes++
		f.UUID = s.UUID
	}

	if s.OwnerType != "" || s.OwnerID != nil {
		modes++

		switch {
		case s.OwnerType == "":
			return f, errs.InvalidArgument("model_type is required when model_id is provided")
		case s.OwnerID == nil:
			return f, errs.InvalidArgument("model_id is required when model_type is provided")
		}

		kind, err := model.ParseOwnerKind(s.OwnerType)
		if err != nil {
			return f, errs.InvalidArgument("%v", err)
		}

		f.Owner = &model.OwnerRef{Kind: kind, ID: *s.OwnerID}
	}

	if modes != 1 {
		return f, errs.InvalidArgument("exactly one of filename, uuid or model_type+model_id is required")
	}

	return f, nil
}

// FileLocation Retrieve 的结果.
type FileLocation struct {
	// Location 本地绝对路径或预签名 URL.
	Location string
	MimeType string
	Disk     string
	Name     string
	Size     int64
}

// Store 写入文件并登记，owner 与 collection 可为空.
func (r *MediaRegistry) Store(ctx context.Context, up *Upload, owner *model.OwnerRef, collection *string) (m *model.Media, err error) {
	ctx, span := tracing.StartSpan(ctx, "media.store")
	defer func() { tracing.End(span, err) }()

	err = runTx(ctx, r.db, r.files, "media.store", func(tx *gorm.DB, st *stage) error {
		m, err = r.store(ctx, tx, st, up, owner, collection)
		return err
	})

	metrics.MediaOps.WithLabelValues("store", metrics.Result(err)).Inc()

	if err != nil {
		return nil, err
	}

	r.events.MediaStored(ctx, mediaPayload(m))

	return m, nil
}

// store 在给定事务中写入文件并插入登记行，文件 key 记入 st 以便回滚时删除.
func (r *MediaRegistry) store(ctx context.Context, tx *gorm.DB, st *stage,
	up *Upload, owner *model.OwnerRef, collection *string) (*model.Media, error) {
	if up == nil || up.Reader == nil {
		return nil, errs.InvalidArgument("no file uploaded")
	}

	mime, body, err := detectMime(up)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	id := uuid.NewString()
	name := sanitizeName(up.Name)
	fileName := id + "-" + name

	st.add(fileName)

	size, err := r.files.Write(ctx, fileName, body, up.Size, mime)
	if err != nil {
		return nil, fmt.Errorf("write file %s: %w", fileName, err)
	}

	m := &model.Media{
		UUID:           id,
		CollectionName: collection,
		Name:           name,
		FileName:       fileName,
		MimeType:       mime,
		Disk:           r.files.Disk(),
		Size:           size,
	}
	m.SetOwner(owner)

	if err := r.media.WithTx(tx).Create(ctx, m); err != nil {
		return nil, err
	}

	nlog.Ctx(ctx).Debug().Str("file", fileName).Int64("size", size).Str("mime", mime).Msg("文件已登记")

	return m, nil
}

// Remove 删除匹配的登记行及其文件，文件缺失不视为错误.
// 登记行先在事务中删除，提交后再删除文件，失败时最多留下未登记文件，由对账任务清理.
func (r *MediaRegistry) Remove(ctx context.Context, sel RemoveSelector) (removed []string, err error) {
	ctx, span := tracing.StartSpan(ctx, "media.remove")
	defer func() { tracing.End(span, err) }()

	defer func() { metrics.MediaOps.WithLabelValues("remove", metrics.Result(err)).Inc() }()

	f, err := sel.filter()
	if err != nil {
		return nil, err
	}

	var rows []model.Media

	err = runTx(ctx, r.db, r.files, "media.remove", func(tx *gorm.DB, _ *stage) error {
		repo := r.media.WithTx(tx)

		rows, err = repo.Find(ctx, f)
		if err != nil {
			return err
		}

		if len(rows) == 0 {
			return errs.NotFound("media")
		}

		ids := make([]uint, len(rows))
		for i := range rows {
			ids[i] = rows[i].ID
		}

		return repo.DeleteByIDs(ctx, ids)
	})
	if err != nil {
		return nil, err
	}

	removed = make([]string, 0, len(rows))

	var fileErrs []error

	for i := range rows {
		if e := r.files.Delete(ctx, rows[i].FileName); e != nil {
			fileErrs = append(fileErrs, fmt.Errorf("delete file %s: %w", rows[i].FileName, e))
			continue
		}

		removed = append(removed, rows[i].FileName)
	}

	r.events.MediaDeleted(ctx, queue.MediaDeletedPayload{FileNames: removed})

	if len(fileErrs) > 0 {
		return removed, errors.Join(fileErrs...)
	}

	return removed, nil
}

// Retrieve 返回文件位置与类型. 登记不存在为 ErrNotFound，登记存在而文件缺失为 ErrStorageInconsistency.
func (r *MediaRegistry) Retrieve(ctx context.Context, fileName string) (loc *FileLocation, err error) {
	ctx, span := tracing.StartSpan(ctx, "media.retrieve")
	defer func() { tracing.End(span, err) }()

	m, err := r.media.ByFileName(ctx, fileName)
	if err != nil {
		return nil, err
	}

	ok, err := r.files.Exists(ctx, m.FileName)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", m.FileName, err)
	}

	if !ok {
		return nil, errs.StorageInconsistency("media %q registered but file is missing", m.FileName)
	}

	path, err := r.files.ReadPath(ctx, m.FileName)
	if err != nil {
		return nil, fmt.Errorf("locate %s: %w", m.FileName, err)
	}

	return &FileLocation{Location: path, MimeType: m.MimeType, Disk: m.Disk, Name: m.Name, Size: m.Size}, nil
}

// Open 打开登记文件的内容流，错误分类与 Retrieve 相同.
func (r *MediaRegistry) Open(ctx context.Context, fileName string) (io.ReadCloser, *model.Media, error) {
	m, err := r.media.ByFileName(ctx, fileName)
	if err != nil {
		return nil, nil, err
	}

	rc, err := r.files.Open(ctx, m.FileName)
	if errors.Is(err, filestore.ErrNotExist) {
		return nil, nil, errs.StorageInconsistency("media %q registered but file is missing", m.FileName)
	}

	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", m.FileName, err)
	}

	return rc, m, nil
}

// exists 在事务中检查 file_name 是否已登记.
func (r *MediaRegistry) exists(ctx context.Context, tx *gorm.DB, fileName string) (bool, error) {
	_, err := r.media.WithTx(tx).ByFileName(ctx, fileName)
	if errors.Is(err, errs.ErrNotFound) {
		return false, nil
	}

	return err == nil, err
}

func mediaPayload(m *model.Media) queue.MediaPayload {
	return queue.MediaPayload{
		UUID:       m.UUID,
		FileName:   m.FileName,
		Name:       m.Name,
		MimeType:   m.MimeType,
		Disk:       m.Disk,
		Size:       m.Size,
		OwnerType:  m.OwnerType,
		OwnerID:    m.OwnerID,
		Collection: m.CollectionName,
	}
}
