package tracker

import (
	"fmt"
	"sync"
	"time"

	"github.com/Fantom-foundation/contract-runtime/executor"
	"github.com/Fantom-foundation/contract-runtime/executor/extension"
	"github.com/Fantom-foundation/contract-runtime/logger"
	"github.com/Fantom-foundation/contract-runtime/utils"
)

const (
	ProgressTrackerDefaultReportFrequency = 1_000 // in blocks

	progressTrackerReportFormat  = "Track: block %d, root %v, disk %d, interval_blk_rate %.2f, interval_deploy_rate %.2f, interval_cost_rate %.2f, overall_blk_rate %.2f, overall_deploy_rate %.2f, overall_cost_rate %.2f"
	progressTrackerSummaryFormat = "Total elapsed time: %d h %d m %d s, processed %d blocks, %d deploys (%d failed), final root %v"
)

// MakeProgressTracker creates a progressTracker that depends on the
// PostBlock event and is only useful as part of a sequential evaluation.
func MakeProgressTracker(cfg *utils.Config, reportFrequency int) executor.Extension {
	if !cfg.TrackProgress {
		return extension.NilExtension{}
	}

	if reportFrequency <= 0 {
		reportFrequency = ProgressTrackerDefaultReportFrequency
	}

	return makeProgressTracker(cfg, reportFrequency, logger.NewLogger(cfg.LogLevel, "ProgressTracker"))
}

func makeProgressTracker(cfg *utils.Config, reportFrequency int, log logger.Logger) *progressTracker {
	frequency := uint64(reportFrequency)
	return &progressTracker{
		cfg:               cfg,
		log:               log,
		reportFrequency:   frequency,
		lastReportedBlock: cfg.First - (cfg.First % frequency),
	}
}

// progressTracker logs progress every reportFrequency blocks and a summary
// at the end of the run.
type progressTracker struct {
	extension.NilExtension
	cfg                 *utils.Config
	log                 logger.Logger
	reportFrequency     uint64
	lastReportedBlock   uint64
	startOfRun          time.Time
	startOfLastInterval time.Time
	overallInfo         processInfo
	lastIntervalInfo    processInfo
	lock                sync.Mutex
}

type processInfo struct {
	numBlocks  uint64
	numDeploys uint64
	numFailed  uint64
	cost       uint64
}

func (t *progressTracker) PreRun(executor.State, *executor.Context) error {
	now := time.Now()
	t.startOfRun = now
	t.startOfLastInterval = now
	return nil
}

// PostTransaction counts the deploy and the cost it was charged.
func (t *progressTracker) PostTransaction(_ executor.State, ctx *executor.Context) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.overallInfo.numDeploys++
	if res := ctx.ExecutionResult; res != nil {
		if !res.IsSuccess() {
			t.overallInfo.numFailed++
		}
		t.overallInfo.cost += res.Cost.Uint64()
	}
	return nil
}

// PostBlock registers the completed block and may trigger the logging of an update.
func (t *progressTracker) PostBlock(state executor.State, ctx *executor.Context) error {
	t.lock.Lock()
	t.overallInfo.numBlocks++
	info := t.overallInfo
	t.lock.Unlock()

	boundary := state.Block - (state.Block % t.reportFrequency)
	if state.Block < t.lastReportedBlock+t.reportFrequency {
		return nil
	}

	disk, err := utils.GetDirectorySize(ctx.StateDbPath)
	if err != nil {
		return fmt.Errorf("cannot size of state-db (%v); %v", ctx.StateDbPath, err)
	}

	now := time.Now()
	overall := now.Sub(t.startOfRun)
	interval := now.Sub(t.startOfLastInterval)

	intervalBlkRate := float64(t.reportFrequency) / interval.Seconds()
	intervalDeployRate := float64(info.numDeploys-t.lastIntervalInfo.numDeploys) / interval.Seconds()
	intervalCostRate := float64(info.cost-t.lastIntervalInfo.cost) / interval.Seconds()
	t.lastIntervalInfo = info

	overallBlkRate := float64(state.Block-t.cfg.First) / overall.Seconds()
	overallDeployRate := float64(info.numDeploys) / overall.Seconds()
	overallCostRate := float64(info.cost) / overall.Seconds()

	t.log.Noticef(
		progressTrackerReportFormat,
		boundary, ctx.StateRoot, disk,
		intervalBlkRate, intervalDeployRate, intervalCostRate,
		overallBlkRate, overallDeployRate, overallCostRate,
	)

	t.lastReportedBlock = boundary
	t.startOfLastInterval = now

	return nil
}

// PostRun reports the totals of the run.
func (t *progressTracker) PostRun(_ executor.State, ctx *executor.Context, _ error) error {
	t.lock.Lock()
	info := t.overallInfo
	t.lock.Unlock()

	hours, minutes, seconds := logger.ParseTime(time.Since(t.startOfRun))
	t.log.Noticef(progressTrackerSummaryFormat, hours, minutes, seconds, info.numBlocks, info.numDeploys, info.numFailed, ctx.StateRoot)
	return nil
}
