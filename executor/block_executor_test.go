package executor

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Fantom-foundation/contract-runtime/engine"
	"github.com/Fantom-foundation/contract-runtime/globalstate"
	"github.com/Fantom-foundation/contract-runtime/logger"
	"github.com/Fantom-foundation/contract-runtime/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"
)

const testChain = "test-chain"

var testProtocolVersion = types.ProtocolVersion{Major: 1}

func testKey(seed byte) types.PublicKey {
	return types.MustPublicKey(types.Ed25519, bytes.Repeat([]byte{seed}, types.Ed25519KeyLength))
}

func testDeploy(seed byte) *types.Deploy {
	session := types.Session{Kind: types.TransferSession, Target: testKey(seed + 100), Amount: *uint256.NewInt(1)}
	return types.NewDeploy(testKey(seed), types.Timestamp(1000+uint64(seed)), 3_600_000, 1, testChain, uint256.NewInt(100_000), session)
}

func testEffects(value byte) globalstate.Effects {
	effects := globalstate.Effects{}
	effects.Add(globalstate.BalanceKey(testKey(value)), globalstate.Write{Value: []byte{value}})
	return effects
}

func newTestExecutor(t *testing.T, engineState engine.EngineState, extensions ...Extension) (*BlockExecutor, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("cannot create metrics; %v", err)
	}
	return NewBlockExecutor(engineState, metrics, logger.NewLogger("critical", "Test"), extensions...), reg
}

// sampleCount returns the number of observations recorded by the histogram with the given name.
func sampleCount(t *testing.T, reg *prometheus.Registry, name string) uint64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("cannot gather metrics; %v", err)
	}
	for _, family := range families {
		if family.GetName() == name {
			return family.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func expectExecution(engineState *engine.MockEngineState, root common.Hash, result engine.ExecutionResult) *gomock.Call {
	return engineState.EXPECT().RunExecute(gomock.Any()).DoAndReturn(func(request engine.ExecuteRequest) ([]engine.ExecutionResult, error) {
		if request.ParentStateHash != root {
			return nil, errors.New("unexpected parent state root")
		}
		return []engine.ExecutionResult{result}, nil
	})
}

func TestBlockExecutor_ExecutesSingleDeployAgainstPreState(t *testing.T) {
	ctrl := gomock.NewController(t)
	engineState := engine.NewMockEngineState(ctrl)
	ex, reg := newTestExecutor(t, engineState)

	r0 := common.Hash{0}
	r1 := common.Hash{1}
	deploy := testDeploy(1)
	block := &types.FinalizedBlock{Height: 0, Deploys: []*types.Deploy{deploy}, Timestamp: 5_000, Proposer: testKey(50)}
	e1 := testEffects(1)

	gomock.InOrder(
		expectExecution(engineState, r0, engine.ExecutionResult{Effect: e1, Cost: *uint256.NewInt(10_000)}),
		engineState.EXPECT().ApplyEffect(r0, e1).Return(r1, nil),
	)

	res, err := ex.ExecuteFinalizedBlock(testProtocolVersion, types.GenesisPreState(r0), block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := res.Block.Header().StateRootHash, r1; got != want {
		t.Errorf("unexpected state root, wanted %v, got %v", want, got)
	}
	if res.StepEffects != nil {
		t.Errorf("unexpected step effects for non-switch block")
	}
	if res.Block.Header().EraEnd != nil {
		t.Errorf("unexpected era end in non-switch block")
	}
	if got, want := len(res.ExecutionResults), 1; got != want {
		t.Fatalf("unexpected number of results, wanted %d, got %d", want, got)
	}
	entry, found := res.ExecutionResults[deploy.Hash()]
	if !found {
		t.Fatalf("result of deploy %v is missing", deploy.Hash())
	}
	if entry.Header != deploy.Header() {
		t.Errorf("unexpected deploy header %v", entry.Header)
	}
	if !entry.Result.IsSuccess() {
		t.Errorf("deploy should have succeeded")
	}
	if got, want := entry.Result.Cost.Uint64(), uint64(10_000); got != want {
		t.Errorf("unexpected cost, wanted %d, got %d", want, got)
	}
	if got, want := sampleCount(t, reg, "contract_runtime_run_execute"), uint64(1); got != want {
		t.Errorf("unexpected number of execute observations, wanted %d, got %d", want, got)
	}
	if got, want := sampleCount(t, reg, "contract_runtime_apply_effect"), uint64(1); got != want {
		t.Errorf("unexpected number of commit observations, wanted %d, got %d", want, got)
	}
	if got, want := sampleCount(t, reg, "contract_runtime_commit_step"), uint64(0); got != want {
		t.Errorf("unexpected number of step observations, wanted %d, got %d", want, got)
	}
}

func TestBlockExecutor_SwitchBlockRunsStepOnLastRoot(t *testing.T) {
	ctrl := gomock.NewController(t)
	engineState := engine.NewMockEngineState(ctrl)
	ex, reg := newTestExecutor(t, engineState)

	r1 := common.Hash{1}
	r2 := common.Hash{2}
	validator := testKey(10)
	inactive := testKey(11)
	block := &types.FinalizedBlock{
		Height:    1,
		EraID:     3,
		Timestamp: 7_000,
		Proposer:  validator,
		EraReport: &types.EraReport{
			Rewards:            []types.Reward{{Validator: validator, Weight: 1}},
			InactiveValidators: []types.PublicKey{inactive},
		},
	}
	validators := types.ValidatorWeights{{Validator: validator, Weight: *uint256.NewInt(1_000)}}
	stepEffects := testEffects(9)

	engineState.EXPECT().CommitStep(engine.StepRequest{
		PreStateHash:          r1,
		ProtocolVersion:       testProtocolVersion,
		RewardItems:           []engine.RewardItem{{Validator: validator, Value: 1}},
		SlashItems:            []engine.SlashItem{},
		EvictItems:            []engine.EvictItem{{Validator: inactive}},
		RunAuction:            true,
		NextEraID:             4,
		EraEndTimestampMillis: 7_000,
	}).Return(engine.StepSuccess{PostStateHash: r2, NextEraValidators: validators, ExecutionEffect: stepEffects}, nil)

	preState := types.ExecutionPreState{NextBlockHeight: 1, PreStateRootHash: r1}
	res, err := ex.ExecuteFinalizedBlock(testProtocolVersion, preState, block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	header := res.Block.Header()
	if got, want := header.StateRootHash, r2; got != want {
		t.Errorf("unexpected state root, wanted %v, got %v", want, got)
	}
	if header.EraEnd == nil {
		t.Fatalf("switch block should carry an era end")
	}
	weight, found := header.EraEnd.NextEraValidatorWeights.Get(validator)
	if !found || weight.Uint64() != 1_000 {
		t.Errorf("unexpected next era validators %v", header.EraEnd.NextEraValidatorWeights)
	}
	if res.StepEffects == nil || res.StepEffects.Len() != stepEffects.Len() {
		t.Errorf("step effects should be returned")
	}
	if len(res.ExecutionResults) != 0 {
		t.Errorf("unexpected deploy results %v", res.ExecutionResults)
	}
	if got, want := sampleCount(t, reg, "contract_runtime_commit_step"), uint64(1); got != want {
		t.Errorf("unexpected number of step observations, wanted %d, got %d", want, got)
	}
	if got, want := testutil.ToFloat64(ex.metrics.chainHeight), float64(1); got != want {
		t.Errorf("unexpected chain height, wanted %v, got %v", want, got)
	}
}

func TestBlockExecutor_RootIsThreadedThroughDeploys(t *testing.T) {
	ctrl := gomock.NewController(t)
	engineState := engine.NewMockEngineState(ctrl)
	ex, _ := newTestExecutor(t, engineState)

	deploys := []*types.Deploy{testDeploy(1), testDeploy(2), testDeploy(3)}
	block := &types.FinalizedBlock{Height: 4, Deploys: deploys}

	calls := []any{}
	for i := range deploys {
		in := common.Hash{byte(i)}
		out := common.Hash{byte(i + 1)}
		effects := testEffects(byte(i))
		calls = append(calls,
			expectExecution(engineState, in, engine.ExecutionResult{Effect: effects}),
			engineState.EXPECT().ApplyEffect(in, effects).Return(out, nil),
		)
	}
	gomock.InOrder(calls...)

	preState := types.ExecutionPreState{NextBlockHeight: 4, PreStateRootHash: common.Hash{0}}
	res, err := ex.ExecuteFinalizedBlock(testProtocolVersion, preState, block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := res.Block.Header().StateRootHash, (common.Hash{3}); got != want {
		t.Errorf("unexpected state root, wanted %v, got %v", want, got)
	}
	if got, want := res.Block.Body().DeployHashes, block.DeployHashes(); len(got) != len(want) {
		t.Errorf("unexpected deploy hashes in body, wanted %v, got %v", want, got)
	}
}

func TestBlockExecutor_EmptyBlockKeepsPreStateRoot(t *testing.T) {
	ctrl := gomock.NewController(t)
	engineState := engine.NewMockEngineState(ctrl)
	ex, _ := newTestExecutor(t, engineState)

	root := common.Hash{42}
	preState := types.ExecutionPreState{NextBlockHeight: 8, PreStateRootHash: root, ParentHash: common.Hash{7}}
	res, err := ex.ExecuteFinalizedBlock(testProtocolVersion, preState, &types.FinalizedBlock{Height: 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := res.Block.Header().StateRootHash, root; got != want {
		t.Errorf("unexpected state root, wanted %v, got %v", want, got)
	}
	if got, want := res.Block.Header().ParentHash, preState.ParentHash; got != want {
		t.Errorf("unexpected parent hash, wanted %v, got %v", want, got)
	}
	if got, want := testutil.ToFloat64(ex.metrics.chainHeight), float64(8); got != want {
		t.Errorf("unexpected chain height, wanted %v, got %v", want, got)
	}
}

func TestBlockExecutor_FailedDeployIsCommittedAndRecorded(t *testing.T) {
	ctrl := gomock.NewController(t)
	engineState := engine.NewMockEngineState(ctrl)
	log := logger.NewMockLogger(ctrl)
	metrics, err := NewMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("cannot create metrics; %v", err)
	}
	ex := NewBlockExecutor(engineState, metrics, log)

	deploy := testDeploy(1)
	effects := testEffects(1)
	failure := errors.New("out of gas")

	gomock.InOrder(
		expectExecution(engineState, common.Hash{}, engine.ExecutionResult{Effect: effects, Cost: *uint256.NewInt(77), Err: failure}),
		log.EXPECT().Debugf(gomock.Any(), gomock.Any()),
		engineState.EXPECT().ApplyEffect(common.Hash{}, effects).Return(common.Hash{1}, nil),
	)

	res, err := ex.ExecuteFinalizedBlock(testProtocolVersion, types.ExecutionPreState{}, &types.FinalizedBlock{Deploys: []*types.Deploy{deploy}})
	if err != nil {
		t.Fatalf("failed deploy must not abort the block: %v", err)
	}
	result := res.ExecutionResults[deploy.Hash()].Result
	if result.IsSuccess() {
		t.Fatalf("deploy should have failed")
	}
	if got, want := result.ErrorMessage, failure.Error(); got != want {
		t.Errorf("unexpected error message, wanted %q, got %q", want, got)
	}
	if got, want := result.Cost.Uint64(), uint64(77); got != want {
		t.Errorf("unexpected cost, wanted %d, got %d", want, got)
	}
	if got, want := len(result.Effect), effects.Len(); got != want {
		t.Errorf("unexpected effect summary length, wanted %d, got %d", want, got)
	}
	if got, want := res.Block.Header().StateRootHash, (common.Hash{1}); got != want {
		t.Errorf("unexpected state root, wanted %v, got %v", want, got)
	}
}

func TestBlockExecutor_UnexpectedNumberOfResultsAbortsWithoutCommit(t *testing.T) {
	tests := map[string][]engine.ExecutionResult{
		"none": {},
		"two":  {{Effect: testEffects(1)}, {Effect: testEffects(2)}},
	}
	for name, results := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			engineState := engine.NewMockEngineState(ctrl)
			ex, _ := newTestExecutor(t, engineState)

			// ApplyEffect must not be called
			engineState.EXPECT().RunExecute(gomock.Any()).Return(results, nil)

			block := &types.FinalizedBlock{Deploys: []*types.Deploy{testDeploy(1)}}
			_, err := ex.ExecuteFinalizedBlock(testProtocolVersion, types.ExecutionPreState{}, block)
			if !errors.Is(err, ErrMoreThanOneExecutionResult) {
				t.Errorf("unexpected error, wanted %v, got %v", ErrMoreThanOneExecutionResult, err)
			}
		})
	}
}

func TestBlockExecutor_CommitExecutionEffectsRejectsEmptyResults(t *testing.T) {
	ctrl := gomock.NewController(t)
	ex, _ := newTestExecutor(t, engine.NewMockEngineState(ctrl))

	_, _, err := ex.CommitExecutionEffects(common.Hash{}, types.DeployHash{}, nil)
	if !errors.Is(err, ErrMoreThanOneExecutionResult) {
		t.Errorf("unexpected error, wanted %v, got %v", ErrMoreThanOneExecutionResult, err)
	}
}

func TestBlockExecutor_EngineErrorsAbortTheBlock(t *testing.T) {
	injected := errors.New("injected")

	t.Run("execute", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		engineState := engine.NewMockEngineState(ctrl)
		ex, _ := newTestExecutor(t, engineState)

		engineState.EXPECT().RunExecute(gomock.Any()).Return(nil, injected)

		block := &types.FinalizedBlock{Deploys: []*types.Deploy{testDeploy(1), testDeploy(2)}}
		_, err := ex.ExecuteFinalizedBlock(testProtocolVersion, types.ExecutionPreState{}, block)
		if !errors.Is(err, ErrEngine) || !errors.Is(err, injected) {
			t.Errorf("unexpected error %v", err)
		}
	})

	t.Run("commit", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		engineState := engine.NewMockEngineState(ctrl)
		ex, _ := newTestExecutor(t, engineState)

		gomock.InOrder(
			engineState.EXPECT().RunExecute(gomock.Any()).Return([]engine.ExecutionResult{{}}, nil),
			engineState.EXPECT().ApplyEffect(gomock.Any(), gomock.Any()).Return(common.Hash{}, injected),
		)

		block := &types.FinalizedBlock{Deploys: []*types.Deploy{testDeploy(1), testDeploy(2)}}
		_, err := ex.ExecuteFinalizedBlock(testProtocolVersion, types.ExecutionPreState{}, block)
		if !errors.Is(err, ErrEngine) || !errors.Is(err, injected) {
			t.Errorf("unexpected error %v", err)
		}
	})

	t.Run("step", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		engineState := engine.NewMockEngineState(ctrl)
		ex, _ := newTestExecutor(t, engineState)

		stepErr := &engine.StepError{Err: engine.ErrInsufficientStake}
		engineState.EXPECT().CommitStep(gomock.Any()).Return(engine.StepSuccess{}, stepErr)

		block := &types.FinalizedBlock{EraReport: &types.EraReport{}}
		_, err := ex.ExecuteFinalizedBlock(testProtocolVersion, types.ExecutionPreState{}, block)
		if !errors.Is(err, ErrStep) || !errors.Is(err, engine.ErrInsufficientStake) {
			t.Errorf("unexpected error %v", err)
		}
		var target *engine.StepError
		if !errors.As(err, &target) {
			t.Errorf("step error should be preserved, got %v", err)
		}
	})
}

func TestBlockExecutor_HeightMismatchIsRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	ex, _ := newTestExecutor(t, engine.NewMockEngineState(ctrl))

	preState := types.ExecutionPreState{NextBlockHeight: 5}
	_, err := ex.ExecuteFinalizedBlock(testProtocolVersion, preState, &types.FinalizedBlock{Height: 6})
	if !errors.Is(err, ErrHeightMismatch) {
		t.Errorf("unexpected error, wanted %v, got %v", ErrHeightMismatch, err)
	}
}

func TestBlockExecutor_DuplicateDeploysAreRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	ex, _ := newTestExecutor(t, engine.NewMockEngineState(ctrl))

	deploy := testDeploy(1)
	block := &types.FinalizedBlock{Deploys: []*types.Deploy{deploy, testDeploy(2), deploy}}
	_, err := ex.ExecuteFinalizedBlock(testProtocolVersion, types.ExecutionPreState{}, block)
	if !errors.Is(err, ErrDuplicateDeploy) {
		t.Errorf("unexpected error, wanted %v, got %v", ErrDuplicateDeploy, err)
	}
}

func TestBlockExecutor_EmptyValidatorSetStillEndsEra(t *testing.T) {
	ctrl := gomock.NewController(t)
	engineState := engine.NewMockEngineState(ctrl)
	ex, _ := newTestExecutor(t, engineState)

	engineState.EXPECT().CommitStep(gomock.Any()).Return(engine.StepSuccess{PostStateHash: common.Hash{1}}, nil)

	res, err := ex.ExecuteFinalizedBlock(testProtocolVersion, types.ExecutionPreState{}, &types.FinalizedBlock{EraReport: &types.EraReport{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Block.Header().EraEnd == nil {
		t.Errorf("switch block should carry an era end")
	}
}

func TestBlockExecutor_ExtensionsGetSignaledAboutEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	engineState := engine.NewMockEngineState(ctrl)
	extension := NewMockExtension(ctrl)
	ex, _ := newTestExecutor(t, engineState, extension)

	block := &types.FinalizedBlock{Height: 3, Deploys: []*types.Deploy{testDeploy(1), testDeploy(2)}}
	r0 := common.Hash{0}
	r1 := common.Hash{1}
	r2 := common.Hash{2}

	gomock.InOrder(
		extension.EXPECT().PreBlock(AtBlock(3), WithStateRoot(r0)),
		extension.EXPECT().PreTransaction(AtTransaction(3, 0), WithStateRoot(r0)),
		engineState.EXPECT().RunExecute(gomock.Any()).Return([]engine.ExecutionResult{{}}, nil),
		engineState.EXPECT().ApplyEffect(r0, gomock.Any()).Return(r1, nil),
		extension.EXPECT().PostTransaction(AtTransaction(3, 0), WithStateRoot(r1)),
		extension.EXPECT().PreTransaction(AtTransaction(3, 1), WithStateRoot(r1)),
		engineState.EXPECT().RunExecute(gomock.Any()).Return([]engine.ExecutionResult{{}}, nil),
		engineState.EXPECT().ApplyEffect(r1, gomock.Any()).Return(r2, nil),
		extension.EXPECT().PostTransaction(AtTransaction(3, 1), WithStateRoot(r2)),
		extension.EXPECT().PostBlock(AtBlock(3), WithStateRoot(r2)),
	)

	preState := types.ExecutionPreState{NextBlockHeight: 3, PreStateRootHash: r0}
	if _, err := ex.ExecuteFinalizedBlock(testProtocolVersion, preState, block); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBlockExecutor_FailingExtensionAbortsTheBlock(t *testing.T) {
	ctrl := gomock.NewController(t)
	engineState := engine.NewMockEngineState(ctrl)
	extension := NewMockExtension(ctrl)
	ex, _ := newTestExecutor(t, engineState, extension)

	stop := errors.New("stop")
	gomock.InOrder(
		extension.EXPECT().PreBlock(gomock.Any(), gomock.Any()),
		extension.EXPECT().PreTransaction(gomock.Any(), gomock.Any()).Return(stop),
	)

	block := &types.FinalizedBlock{Deploys: []*types.Deploy{testDeploy(1)}}
	if _, err := ex.ExecuteFinalizedBlock(testProtocolVersion, types.ExecutionPreState{}, block); !errors.Is(err, stop) {
		t.Errorf("unexpected error, wanted %v, got %v", stop, err)
	}
}
