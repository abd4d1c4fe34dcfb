package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, err := time.LoadLocation(a.appConfig.System.Location)
	if err != nil {
		loc = time.Local
	}
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	spec := a.appConfig.Images.ReconcileInterval
	if spec == "" {
		spec = "@every 10m"
	}
	_, err = a.sched.AddFunc(spec, func() {
		a.SchedReconcileImagesTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}
}

// SchedReconcileImagesTask settles image uploads that stayed pending longer
// than images.pending_ttl.
func (a *Application) SchedReconcileImagesTask() {
	ttl := a.appConfig.Images.PendingTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := a.Catalog(a.gormDB).ReconcileImages(ctx, time.Now().Add(-ttl)); err != nil {
		zap.L().Error("image reconcile task failed", zap.Error(err))
	}
}
