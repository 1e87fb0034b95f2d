package command

import (
	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-profile/query"
	"github.com/goliatone/go-profile/service"
)

// RegisterHandlers wires the profile commands and queries to go-command. The
// prune handler is only registered when a pruner is given.
func RegisterHandlers(reg *gcmd.Registry, svc *service.Service, pruner Pruner) ([]dispatcher.Subscription, error) {
	if svc == nil {
		return nil, errors.New("profile service is required", errors.CategoryValidation).
			WithTextCode("SERVICE_REQUIRED")
	}

	export := NewExportProfileHandler(svc)
	install := NewInstallAppHandler(svc)
	dismiss := NewDismissBannerHandler(svc)
	copyField := NewCopyFieldHandler(svc)

	snapshot := query.NewGetSnapshotHandler(svc)
	banner := query.NewGetBannerStatusHandler(svc)
	copyState := query.NewGetCopyStateHandler(svc)
	history := query.NewExportHistoryHandler(svc)

	subscriptions := []dispatcher.Subscription{
		dispatcher.SubscribeCommand(export),
		dispatcher.SubscribeCommand(install),
		dispatcher.SubscribeCommand(dismiss),
		dispatcher.SubscribeCommand(copyField),
		dispatcher.SubscribeQuery(snapshot),
		dispatcher.SubscribeQuery(banner),
		dispatcher.SubscribeQuery(copyState),
		dispatcher.SubscribeQuery(history),
	}
	handlers := []any{export, install, dismiss, copyField, snapshot, banner, copyState, history}

	if pruner != nil {
		prune := NewPruneArtifactsHandler(pruner, DefaultArtifactMaxAge)
		subscriptions = append(subscriptions, dispatcher.SubscribeCommand(prune))
		handlers = append(handlers, prune)
	}

	if reg != nil {
		for _, handler := range handlers {
			if err := reg.RegisterCommand(handler); err != nil {
				return subscriptions, err
			}
		}
	}
	return subscriptions, nil
}
