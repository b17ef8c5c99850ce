package intake

import (
	"context"
	"errors"
	"strings"
)

type testEnv struct {
	uploader  *fakeUploader
	extractor *fakeExtractor
	orders    *fakeOrders
	wizard    *Wizard
	dispatch  *Dispatcher
	outcomes  []Outcome
	completed []Session
}

func newTestEnv() *testEnv {
	env := &testEnv{
		uploader:  &fakeUploader{},
		extractor: &fakeExtractor{results: defaultResults(), errs: map[DocumentKind]error{}},
		orders:    &fakeOrders{},
	}
	env.wizard = NewWizard(NewSession("s1"), env.orders, WithCompletion(func(s Session, _ *OrderConfirmation) {
		env.completed = append(env.completed, s)
	}))
	env.dispatch = NewDispatcher(env.uploader, env.extractor, WithOutcomeHook(func(_ context.Context, o Outcome) {
		env.outcomes = append(env.outcomes, o)
	}))
	return env
}

func (ts *TestSuite) confirmBasics(env *testEnv) {
	_, _, err := env.wizard.Submit(context.Background(), StepData{
		Basics: &Basics{InsuranceType: InsuranceNewCar, StartDate: startDate()},
	})
	ts.NoError(err)
}

func (ts *TestSuite) Test_WizardIDCardFlowSubmitsEditedAddress() {
	env := newTestEnv()
	ctx := context.Background()

	ts.confirmBasics(env)
	s, err := env.dispatch.Dispatch(ctx, env.wizard, KindIDCard, file("id.jpg"))
	ts.NoError(err)
	ts.Equal(StatusSucceeded, s.Slot(KindIDCard).Status)
	ts.Equal(int64(7), *s.Slot(KindIDCard).FileID)
	ts.Equal("张三", s.Identity.Name)

	s, _, err = env.wizard.Submit(ctx, StepData{Identity: &IdentityFields{
		Name: "张三", Number: "110101199001011234", Address: "上海",
	}})
	ts.NoError(err)
	ts.Equal(StepVehicle, s.CurrentStep)

	_, err = env.dispatch.Dispatch(ctx, env.wizard, KindDriving, file("dl.jpg"))
	ts.NoError(err)

	s, conf, err := env.wizard.Submit(ctx, StepData{Vehicle: &VehicleFields{
		Plate: strPtr("苏A12345"), VehicleType: strPtr("重型厢式货车"), Engine: "E123", Frame: "LFV123",
	}})
	ts.NoError(err)
	ts.Equal("ORD-1", conf.OrderID)
	ts.True(s.Finished)
	ts.Equal(StepDone, s.CurrentStep)
	ts.Len(env.completed, 1)

	ts.Len(env.orders.payloads, 1)
	ts.Equal(IDCardDoc{ID: 7, Name: "张三", Number: "110101199001011234", Address: "上海"}, env.orders.payloads[0].Identity)
	ts.Len(env.outcomes, 2)

	_, err = env.wizard.GoTo(0)
	ts.ErrorIs(err, ErrSessionFinished)
}

func (ts *TestSuite) Test_WizardSubmitFailureKeepsData() {
	env := newTestEnv()
	ctx := context.Background()
	env.orders.err = errRemote

	ts.confirmBasics(env)
	_, err := env.dispatch.Dispatch(ctx, env.wizard, KindIDCard, file("id.jpg"))
	ts.NoError(err)
	_, _, err = env.wizard.Submit(ctx, StepData{Identity: &IdentityFields{Name: "张三", Number: "1", Address: "北京"}})
	ts.NoError(err)
	_, err = env.dispatch.Dispatch(ctx, env.wizard, KindDriving, file("dl.jpg"))
	ts.NoError(err)

	vehicle := &VehicleFields{Plate: strPtr("浙B99999"), VehicleType: strPtr("牵引车"), Engine: "E1", Frame: "F1"}
	s, conf, err := env.wizard.Submit(ctx, StepData{Vehicle: vehicle})
	ts.Nil(conf)
	ts.Equal(SubmissionFailure, KindOf(err))
	ts.ErrorIs(err, errRemote)
	ts.False(s.Finished)
	ts.Equal(StepVehicle, s.CurrentStep)
	ts.Equal("浙B99999", *s.Vehicle.Plate)
	ts.Equal("北京", s.Identity.Address)
	ts.Empty(env.completed)

	env.orders.err = nil
	s, conf, err = env.wizard.Submit(ctx, StepData{Vehicle: vehicle})
	ts.NoError(err)
	ts.NotNil(conf)
	ts.True(s.Finished)
	ts.Len(env.orders.payloads, 2)
}

func (ts *TestSuite) Test_WizardPlateRejectedBlocksSubmission() {
	env := newTestEnv()
	ctx := context.Background()

	ts.confirmBasics(env)
	_, err := env.dispatch.Dispatch(ctx, env.wizard, KindIDCard, file("id.jpg"))
	ts.NoError(err)
	_, _, err = env.wizard.Submit(ctx, StepData{Identity: &IdentityFields{Name: "a", Number: "b", Address: "c"}})
	ts.NoError(err)
	_, err = env.dispatch.Dispatch(ctx, env.wizard, KindDriving, file("dl.jpg"))
	ts.NoError(err)

	s, _, err := env.wizard.Submit(ctx, StepData{Vehicle: &VehicleFields{
		Plate: strPtr("京A12345"), VehicleType: strPtr("x"), Engine: "e", Frame: "f",
	}})
	ts.Equal(ValidationFailure, KindOf(err))
	ts.Contains(err.Error(), PlateRejection)
	ts.False(s.Finished)
	ts.Empty(env.orders.payloads)
}

func (ts *TestSuite) Test_WizardSubmitLockedIdentity() {
	env := newTestEnv()
	ctx := context.Background()
	ts.confirmBasics(env)

	_, _, err := env.wizard.Submit(ctx, StepData{Identity: &IdentityFields{Name: "a", Number: "b", Address: "c"}})
	ts.ErrorIs(err, ErrDocumentNotVerified)
	ts.Equal(StepIdentity, env.wizard.Snapshot().CurrentStep)
}

func (ts *TestSuite) Test_DispatchUploadFailure() {
	env := newTestEnv()
	env.uploader.err = errRemote

	s, err := env.dispatch.Dispatch(context.Background(), env.wizard, KindIDCard, file("id.jpg"))
	ts.Equal(UploadFailure, KindOf(err))
	ts.ErrorIs(err, errRemote)
	ts.Equal(StatusFailed, s.Slot(KindIDCard).Status)
	ts.Nil(s.Slot(KindIDCard).FileID)
	ts.Empty(env.outcomes)
}

func (ts *TestSuite) Test_DispatchExtractionFailure() {
	env := newTestEnv()
	env.extractor.errs[KindDriving] = errRemote

	s, err := env.dispatch.Dispatch(context.Background(), env.wizard, KindDriving, file("dl.jpg"))
	ts.Equal(ExtractionFailure, KindOf(err))
	ts.True(strings.HasPrefix(err.Error(), "recognize driving"))
	ts.Equal(StatusFailed, s.Slot(KindDriving).Status)
	ts.True(s.Locks()["plate"])

	ts.Len(env.outcomes, 1)
	ts.Equal(StatusFailed, env.outcomes[0].Status)
	ts.False(env.outcomes[0].Stale)
}

func (ts *TestSuite) Test_DispatchFallsBackToUploadID() {
	env := newTestEnv()
	env.extractor.results[KindIDCard] = Extraction{Name: "李四", Number: "2", Address: "南京"}

	s, err := env.dispatch.Dispatch(context.Background(), env.wizard, KindIDCard, file("id.jpg"))
	ts.NoError(err)
	ts.Equal(int64(101), *s.Slot(KindIDCard).FileID)
	ts.Equal("https://files.test/idCard/id.jpg", s.Slot(KindIDCard).File.URL)
}

func (ts *TestSuite) Test_DispatchInactiveBranch() {
	env := newTestEnv()
	_, err := env.dispatch.Dispatch(context.Background(), env.wizard, KindCertificate, file("c.jpg"))
	ts.ErrorIs(err, ErrInactiveBranch)
}

func (ts *TestSuite) Test_DispatchStaleAfterBranchSwitch() {
	env := newTestEnv()
	env.extractor.gate = make(chan struct{})
	env.extractor.entered = make(chan struct{})
	ctx := context.Background()

	type result struct {
		s   Session
		err error
	}
	done := make(chan result, 1)
	go func() {
		s, err := env.dispatch.Dispatch(ctx, env.wizard, KindIDCard, file("id.jpg"))
		done <- result{s, err}
	}()

	<-env.extractor.entered
	ts.True(env.wizard.Snapshot().Busy())

	_, err := env.dispatch.Dispatch(ctx, env.wizard, KindIDCard, file("again.jpg"))
	ts.ErrorIs(err, ErrSlotBusy)

	s, err := env.wizard.SetIdentityBranch(IdentityBusiness)
	ts.NoError(err)
	ts.Equal(StatusIdle, s.Slot(KindIDCard).Status)
	ts.False(s.Busy())

	close(env.extractor.gate)
	r := <-done
	ts.ErrorIs(r.err, ErrStaleDispatch)

	s = env.wizard.Snapshot()
	ts.Equal(IdentityBusiness, s.IdentityBranch)
	ts.Equal(StatusIdle, s.Slot(KindIDCard).Status)
	ts.Nil(s.Slot(KindIDCard).FileID)
	ts.Equal(IdentityFields{}, s.Identity)

	ts.Len(env.outcomes, 1)
	ts.True(env.outcomes[0].Stale)
}

func (ts *TestSuite) Test_DispatchRejectedWhileOtherSlotRecognizing() {
	env := newTestEnv()
	env.extractor.gate = make(chan struct{})
	env.extractor.entered = make(chan struct{})
	ctx := context.Background()

	errc := make(chan error, 1)
	go func() {
		_, err := env.dispatch.Dispatch(ctx, env.wizard, KindIDCard, file("id.jpg"))
		errc <- err
	}()
	<-env.extractor.entered

	s, err := env.dispatch.Dispatch(ctx, env.wizard, KindDriving, file("dl.jpg"))
	ts.ErrorIs(err, ErrSessionBusy)
	ts.Equal(StatusIdle, s.Slot(KindDriving).Status)
	ts.Equal(StatusPending, s.Slot(KindIDCard).Status)

	close(env.extractor.gate)
	ts.NoError(<-errc)
	ts.Len(env.outcomes, 1)
	ts.Equal(KindIDCard, env.outcomes[0].Kind)

	env.extractor.gate = nil
	env.extractor.entered = nil
	s, err = env.dispatch.Dispatch(ctx, env.wizard, KindDriving, file("dl.jpg"))
	ts.NoError(err)
	ts.Equal(StatusSucceeded, s.Slot(KindDriving).Status)
	ts.Equal(StatusSucceeded, s.Slot(KindIDCard).Status)
}

func (ts *TestSuite) Test_WizardPatchMergesIntoLatestRecognition() {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.wizard.PatchVehicle(func(f VehicleFields) VehicleFields {
		f.Engine = "E9"
		return f
	})
	ts.ErrorIs(err, ErrDocumentNotVerified)

	_, err = env.dispatch.Dispatch(ctx, env.wizard, KindIDCard, file("id.jpg"))
	ts.NoError(err)
	env.extractor.results[KindIDCard] = Extraction{ID: 8, Name: "李四", Number: "320102198505050011", Address: "南京"}
	_, err = env.dispatch.Dispatch(ctx, env.wizard, KindIDCard, file("id-2.jpg"))
	ts.NoError(err)

	var seen IdentityFields
	s, err := env.wizard.PatchIdentity(func(f IdentityFields) IdentityFields {
		seen = f
		f.Address = "上海"
		return f
	})
	ts.NoError(err)
	ts.Equal("李四", seen.Name)
	ts.Equal(IdentityFields{Name: "李四", Number: "320102198505050011", Address: "上海"}, s.Identity)
}

func (ts *TestSuite) Test_WizardSubmitWithBuildsFromCurrentStep() {
	env := newTestEnv()
	ctx := context.Background()
	errBuild := errors.New("basics missing")

	s, conf, err := env.wizard.SubmitWith(ctx, func(current Session) (StepData, error) {
		ts.Equal(StepBasics, current.CurrentStep)
		return StepData{}, errBuild
	})
	ts.ErrorIs(err, errBuild)
	ts.Nil(conf)
	ts.Equal(StepBasics, s.CurrentStep)

	ts.confirmBasics(env)
	_, err = env.dispatch.Dispatch(ctx, env.wizard, KindIDCard, file("id.jpg"))
	ts.NoError(err)

	s, _, err = env.wizard.SubmitWith(ctx, func(current Session) (StepData, error) {
		f := current.Identity
		f.Address = "杭州"
		return StepData{Identity: &f}, nil
	})
	ts.NoError(err)
	ts.Equal(StepVehicle, s.CurrentStep)
	ts.Equal("张三", s.Identity.Name)
	ts.Equal("杭州", s.Identity.Address)
}

func (ts *TestSuite) Test_WizardRejectsEditsWhileSubmitting() {
	env := newTestEnv()
	ctx := context.Background()
	block := make(chan struct{})
	entered := make(chan struct{})
	orders := &blockingOrders{entered: entered, release: block}
	env.wizard = NewWizard(NewSession("s1"), orders)

	ts.confirmBasics(env)
	_, err := env.dispatch.Dispatch(ctx, env.wizard, KindIDCard, file("id.jpg"))
	ts.NoError(err)
	_, _, err = env.wizard.Submit(ctx, StepData{Identity: &IdentityFields{Name: "a", Number: "b", Address: "c"}})
	ts.NoError(err)
	_, err = env.dispatch.Dispatch(ctx, env.wizard, KindDriving, file("dl.jpg"))
	ts.NoError(err)

	errc := make(chan error, 1)
	go func() {
		_, _, err := env.wizard.Submit(ctx, StepData{Vehicle: &VehicleFields{
			Plate: strPtr("苏A1"), VehicleType: strPtr("x"), Engine: "e", Frame: "f",
		}})
		errc <- err
	}()
	<-entered

	_, err = env.wizard.GoTo(0)
	ts.ErrorIs(err, ErrSubmissionInFlight)
	_, _, err = env.wizard.Submit(ctx, StepData{Vehicle: &VehicleFields{}})
	ts.ErrorIs(err, ErrSubmissionInFlight)

	close(block)
	ts.NoError(<-errc)
	ts.True(env.wizard.Snapshot().Finished)
}

type blockingOrders struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingOrders) CreateOrder(ctx context.Context, _ Payload) (*OrderConfirmation, error) {
	b.entered <- struct{}{}
	select {
	case <-b.release:
		return &OrderConfirmation{OrderID: "ORD-2"}, nil
	case <-ctx.Done():
		return nil, errors.New("canceled")
	}
}
