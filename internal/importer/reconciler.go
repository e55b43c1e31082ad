package importer

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/holical/internal/model"
	"github.com/hitoshi/holical/internal/repository"
)

// MetricsRecorder はインポート処理のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordImportSuccess(country, state string)
	RecordImportFailure(country, state string)
	RecordHolidaysImported(count int)
	RecordImportLatency(duration time.Duration)
}

// Reconciler は外部プロバイダーの祝日セットを既存データと照合し、
// 新規の行のみを冪等に取り込む。
//
// 連邦・地域の二重計上の回避: 固定の連邦祝日は各州のカレンダーにも
// そのまま含まれるため、州スコープのエントリは同一実行内で取得した
// 国全体セットと (date, name) ペアで照合して除外する。同一実行内の
// 連邦挿入はトランザクション分離によってはまだ読み取れない可能性が
// あるため、DBだけを照合先にすることはできない。
type Reconciler struct {
	repo     repository.HolidayRepository
	provider Provider
	metrics  MetricsRecorder
	logger   *slog.Logger
}

// NewReconciler はReconcilerの新しいインスタンスを生成する。
func NewReconciler(repo repository.HolidayRepository, provider Provider, metrics MetricsRecorder, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		repo:     repo,
		provider: provider,
		metrics:  metrics,
		logger:   logger,
	}
}

// Import は指定された年・国・州スコープの祝日をプロバイダーから取り込む。
// プロバイダーへの問い合わせはDB書き込みの前にすべて完了させるため、
// プロバイダー障害時は一切の書き込みなしでImportFailedエラーを返す
// （呼び出し単位でアトミック）。戻り値は新規挿入された行数で、
// 完全に冪等な再実行では0となる。
func (r *Reconciler) Import(ctx context.Context, year int, country, state string) (int, error) {
	start := time.Now()
	country = strings.ToUpper(country)
	state = strings.ToUpper(state)

	candidates, err := r.collectCandidates(ctx, year, country, state)
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordImportFailure(country, state)
		}
		return 0, model.NewImportFailedError(err.Error())
	}

	fresh, err := r.filterStored(ctx, candidates)
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordImportFailure(country, state)
		}
		return 0, err
	}

	inserted, err := r.repo.InsertImportedBatch(ctx, scopeLockKey(year, country, state), fresh)
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordImportFailure(country, state)
		}
		return 0, err
	}

	if r.metrics != nil {
		r.metrics.RecordImportSuccess(country, state)
		r.metrics.RecordHolidaysImported(inserted)
		r.metrics.RecordImportLatency(time.Since(start))
	}

	r.logger.Info("祝日インポート完了",
		slog.Int("year", year),
		slog.String("country", country),
		slog.String("state", state),
		slog.Int("candidates", len(candidates)),
		slog.Int("inserted", inserted),
	)

	return inserted, nil
}

// collectCandidates はプロバイダーから祝日セットを取得し、挿入候補の行を構築する。
// 国全体セットは連邦除外セットを兼ねるため、州スコープでも必ず取得する。
func (r *Reconciler) collectCandidates(ctx context.Context, year int, country, state string) ([]*model.Holiday, error) {
	national, err := r.provider.HolidaysFor(ctx, country, "", year)
	if err != nil {
		return nil, fmt.Errorf("国全体の祝日セットの取得に失敗: %w", err)
	}

	federalSet := make(map[string]bool, len(national))
	for _, h := range national {
		federalSet[pairKey(h.Date, h.Name)] = true
	}

	var candidates []*model.Holiday
	seen := make(map[string]bool)

	if state == "" {
		// 国全体スコープ: 連邦祝日として取り込む
		for _, h := range national {
			key := pairKey(h.Date, h.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
			candidates = append(candidates, &model.Holiday{
				Name:    h.Name,
				Date:    h.Date,
				Country: country,
				Federal: true,
			})
		}
		return candidates, nil
	}

	// 州スコープ: 連邦セットと一致する (date, name) ペアを地域祝日として
	// 二重登録しないよう除外する
	regional, err := r.provider.HolidaysFor(ctx, country, state, year)
	if err != nil {
		return nil, fmt.Errorf("州 %s の祝日セットの取得に失敗: %w", state, err)
	}

	for _, h := range regional {
		key := pairKey(h.Date, h.Name)
		if federalSet[key] || seen[key] {
			continue
		}
		seen[key] = true
		candidates = append(candidates, &model.Holiday{
			Name:    h.Name,
			Date:    h.Date,
			Country: country,
			State:   state,
			Federal: false,
		})
	}

	return candidates, nil
}

// filterStored は既にストアに存在する (date, name, country, state) タプルの候補を
// 除外する。実行済みインポートの再実行では全候補がここで落ち、挿入0件で完了する。
// バッチ挿入側のNOT EXISTSは同時実行インポートに対する最終ガードとして残る。
func (r *Reconciler) filterStored(ctx context.Context, candidates []*model.Holiday) ([]*model.Holiday, error) {
	fresh := make([]*model.Holiday, 0, len(candidates))
	for _, h := range candidates {
		existing, err := r.repo.FindImported(ctx, h.Date, h.Name, h.Country, h.State)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}
		fresh = append(fresh, h)
	}
	return fresh, nil
}

// pairKey は (date, name) ペアの照合キーを生成する。
func pairKey(date time.Time, name string) string {
	return date.Format(model.DateFormat) + "|" + name
}

// scopeLockKey は (year, country, state) スコープのアドバイザリロックキーを生成する。
// 同一スコープの同時インポートはこのキーで直列化される。
func scopeLockKey(year int, country, state string) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%s|%s", year, country, state)
	return int64(h.Sum64())
}
