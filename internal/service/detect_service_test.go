package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"plagia-detect-go/internal/config"
	"plagia-detect-go/internal/detector"
	"plagia-detect-go/internal/model"
	"plagia-detect-go/pkg/log"
	"plagia-detect-go/pkg/tika"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.Init("error", "json", "")
	m.Run()
}

// stubReferenceRepo 是 ReferenceRepository 的内存实现，
// failingMD5 指定的文献在加载单元时返回错误，用于验证单文献失败隔离；
// failingKind 非空时只有该类型的单元加载失败，findDelay 模拟慢存储。
type stubReferenceRepo struct {
	docs        []model.ReferenceDocument
	units       map[string][]model.ReferenceUnit
	failingMD5  string
	failingKind string
	findDelay   time.Duration
	listErr     error
	findUnitErr error
}

func (r *stubReferenceRepo) CreateDocument(doc *model.ReferenceDocument) error { return nil }
func (r *stubReferenceRepo) GetDocumentByMD5(fileMD5 string) (*model.ReferenceDocument, error) {
	for i := range r.docs {
		if r.docs[i].FileMD5 == fileMD5 {
			return &r.docs[i], nil
		}
	}
	return nil, errors.New("not found")
}
func (r *stubReferenceRepo) UpdateDocument(doc *model.ReferenceDocument) error { return nil }
func (r *stubReferenceRepo) ListDocuments() ([]model.ReferenceDocument, error) {
	return r.docs, nil
}
func (r *stubReferenceRepo) ListReadyDocuments() ([]model.ReferenceDocument, error) {
	return r.docs, r.listErr
}
func (r *stubReferenceRepo) CountReadyDocuments() (int64, error) {
	return int64(len(r.docs)), nil
}
func (r *stubReferenceRepo) DeleteDocument(fileMD5 string) error { return nil }
func (r *stubReferenceRepo) ReplaceUnits(fileMD5 string, units []*model.ReferenceUnit) error {
	return nil
}
func (r *stubReferenceRepo) FindUnits(fileMD5, kind string) ([]model.ReferenceUnit, error) {
	if r.findDelay > 0 {
		time.Sleep(r.findDelay)
	}
	if fileMD5 == r.failingMD5 && (r.failingKind == "" || kind == r.failingKind) {
		return nil, r.findUnitErr
	}
	var out []model.ReferenceUnit
	for _, u := range r.units[fileMD5] {
		if u.Kind == kind {
			out = append(out, u)
		}
	}
	return out, nil
}

// stubEmbedder 为每条句子返回同一个单位向量，使所有句子两两相似度为 1。
type stubEmbedder struct{}

func (stubEmbedder) CreateEmbeddings(_ context.Context, sentences []string) ([][]float32, error) {
	out := make([][]float32, len(sentences))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

type stubVision struct{}

func (stubVision) ExtractFeatures(context.Context, []byte) ([]float32, error) {
	return []float32{1, 0}, nil
}

func textUnit(md5, content string, vec []float32) model.ReferenceUnit {
	u := model.ReferenceUnit{FileMD5: md5, Kind: model.UnitKindText, Content: content}
	if err := u.SetVector(vec); err != nil {
		panic(err)
	}
	return u
}

func newTikaStub(t *testing.T, text string) *tika.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(text))
	}))
	t.Cleanup(srv.Close)
	return tika.NewClient(config.TikaConfig{ServerURL: srv.URL})
}

// Redis 不可达时向量缓存应作为未命中处理，不影响检测。
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
}

func newTestDetectService(t *testing.T, repo *stubReferenceRepo, tikaText string) DetectService {
	t.Helper()
	return NewDetectService(
		newTikaStub(t, tikaText),
		stubEmbedder{},
		stubVision{},
		nil,
		repo,
		unreachableRedis(),
		config.MinIOConfig{BucketName: "test-bucket"},
		config.DetectionConfig{TimeoutSeconds: 30, SummaryLanguage: "en", CacheTTLMinutes: 1},
	)
}

func TestDetectEmptyCorpus(t *testing.T) {
	repo := &stubReferenceRepo{}
	svc := newTestDetectService(t, repo, "some text.")

	_, err := svc.Detect(context.Background(), "essay.txt", []byte("some text"))
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}

func TestDetectFindsMatches(t *testing.T) {
	repo := &stubReferenceRepo{
		docs: []model.ReferenceDocument{
			{FileMD5: "md5-a", FileName: "ref-a.txt", Status: model.RefStatusReady},
		},
		units: map[string][]model.ReferenceUnit{
			"md5-a": {textUnit("md5-a", "reference sentence", []float32{1, 0})},
		},
	}
	svc := newTestDetectService(t, repo, "first sentence. second sentence.")

	r, err := svc.Detect(context.Background(), "essay.txt", []byte("essay"))
	require.NoError(t, err)

	// 两条句子都与参考句子相似度为 1，全部命中
	assert.Equal(t, 2, r.TotalSentences)
	assert.Equal(t, 100.0, r.TextScore)
	assert.Equal(t, 80.0, r.CombinedScore)
	assert.Equal(t, 1, r.DocumentsCompared)
	assert.Len(t, r.TextMatches, 2)
	assert.NotEmpty(t, r.Summary)
}

// 单个参考文献加载失败不应中断扫描：其余文献照常比对，
// documents_compared 只统计成功的文献。
func TestDetectIsolatesFailingDocument(t *testing.T) {
	repo := &stubReferenceRepo{
		docs: []model.ReferenceDocument{
			{FileMD5: "md5-bad", FileName: "broken.txt", Status: model.RefStatusReady},
			{FileMD5: "md5-good", FileName: "ref.txt", Status: model.RefStatusReady},
		},
		units: map[string][]model.ReferenceUnit{
			"md5-good": {textUnit("md5-good", "reference sentence", []float32{1, 0})},
		},
		failingMD5:  "md5-bad",
		findUnitErr: errors.New("storage unavailable"),
	}
	svc := newTestDetectService(t, repo, "only sentence.")

	r, err := svc.Detect(context.Background(), "essay.txt", []byte("essay"))
	require.NoError(t, err)

	assert.Equal(t, 1, r.DocumentsCompared)
	require.Len(t, r.TextMatches, 1)
	assert.Equal(t, "md5-good", r.TextMatches[0].RefDocID)
}

func TestDetectNoMatches(t *testing.T) {
	repo := &stubReferenceRepo{
		docs: []model.ReferenceDocument{
			{FileMD5: "md5-a", FileName: "ref.txt", Status: model.RefStatusReady},
		},
		units: map[string][]model.ReferenceUnit{
			"md5-a": {textUnit("md5-a", "reference sentence", []float32{0, 1})},
		},
	}
	svc := newTestDetectService(t, repo, "only sentence.")

	r, err := svc.Detect(context.Background(), "essay.txt", []byte("essay"))
	require.NoError(t, err)

	assert.Equal(t, 0.0, r.CombinedScore)
	assert.Equal(t, "None", string(r.RiskLevel))
	assert.Empty(t, r.TextMatches)
}

// 图片单元加载失败时该文献整体记为失败（Err 非空，不计入 documents_compared），
// 但已产出的文本匹配必须保留并参与得分。
func TestCompareAgainstImageLoadFailureKeepsTextMatches(t *testing.T) {
	repo := &stubReferenceRepo{
		docs: []model.ReferenceDocument{
			{FileMD5: "md5-a", FileName: "ref.pdf", Status: model.RefStatusReady, ImageCount: 1},
		},
		units: map[string][]model.ReferenceUnit{
			"md5-a": {textUnit("md5-a", "reference sentence", []float32{1, 0})},
		},
		failingMD5:  "md5-a",
		failingKind: model.UnitKindImage,
		findUnitErr: errors.New("storage unavailable"),
	}
	svc := newTestDetectService(t, repo, "only sentence.").(*detectService)

	subText := []detector.TextUnit{{Text: "only sentence", Vector: []float32{1, 0}}}
	subImages := []detector.ImageUnit{{Vector: []float32{1, 0}}}

	outcome := svc.compareAgainst(context.Background(), repo.docs[0], subText, subImages)

	assert.Error(t, outcome.Err)
	require.Len(t, outcome.TextMatches, 1)
	assert.Equal(t, "md5-a", outcome.TextMatches[0].RefDocID)
	assert.Empty(t, outcome.ImageMatches)
}

// 截止时间在扫描途中耗尽时不得返回只覆盖部分语料的报告，必须返回超时错误。
func TestDetectDeadlineExpiredMidScan(t *testing.T) {
	repo := &stubReferenceRepo{
		docs: []model.ReferenceDocument{
			{FileMD5: "md5-a", FileName: "ref-a.txt", Status: model.RefStatusReady},
			{FileMD5: "md5-b", FileName: "ref-b.txt", Status: model.RefStatusReady},
		},
		units: map[string][]model.ReferenceUnit{
			"md5-a": {textUnit("md5-a", "reference sentence", []float32{1, 0})},
			"md5-b": {textUnit("md5-b", "reference sentence", []float32{1, 0})},
		},
		findDelay: 1200 * time.Millisecond,
	}
	svc := NewDetectService(
		newTikaStub(t, "only sentence."),
		stubEmbedder{},
		stubVision{},
		nil,
		repo,
		unreachableRedis(),
		config.MinIOConfig{BucketName: "test-bucket"},
		config.DetectionConfig{TimeoutSeconds: 1, SummaryLanguage: "en", CacheTTLMinutes: 1},
	)

	r, err := svc.Detect(context.Background(), "essay.txt", []byte("essay"))
	assert.Nil(t, r)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
