package syncer

import (
	"fmt"
	"log/slog"
	"time"

	"catalogsync/internal/config"
	"catalogsync/internal/model"
	"catalogsync/internal/store"
)

// loadWatermark lê o estado. Sem estado usa DEFAULT_SINCE ou, na falta
// dele, a meia-noite (UTC) de ontem.
func (s *Syncer) loadWatermark(log *slog.Logger) (time.Time, error) {
	st, ok, err := store.LoadState(s.cfg.StateFile)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		since, err := s.defaultSince()
		if err != nil {
			return time.Time{}, err
		}
		log.Info("sem estado anterior, usando data padrão", "since", since.Format(model.LayoutISO))
		return since, nil
	}
	return parseState(st)
}

func (s *Syncer) defaultSince() (time.Time, error) {
	if s.cfg.DefaultSince != "" {
		t, err := parseTimestamp(s.cfg.DefaultSince)
		if err != nil {
			return time.Time{}, fmt.Errorf("DEFAULT_SINCE: %w", err)
		}
		return t, nil
	}
	y, m, d := s.now().UTC().AddDate(0, 0, -1).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// parseState aceita qualquer uma das duas formas, para que trocar de
// variante não perca o watermark.
func parseState(st model.SyncState) (time.Time, error) {
	if st.LastSync != "" {
		t, err := parseTimestamp(st.LastSync)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid last_sync %q: %w", st.LastSync, err)
		}
		return t, nil
	}

	hora := st.Time
	if hora == "" {
		hora = "00:00:00"
	}
	t, err := time.ParseInLocation(model.LayoutDate+"T"+model.LayoutTime, st.Date+"T"+hora, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid fecha/hora %q %q: %w", st.Date, st.Time, err)
	}
	return t, nil
}

func parseTimestamp(v string) (time.Time, error) {
	for _, layout := range []string{model.LayoutISO, time.RFC3339, model.LayoutDate} {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", v)
}

// nextState avança o watermark para o início da consulta. Na variante por
// tempo decorrido recua a janela de segurança (relógios e commits atrasados
// no upstream).
func (s *Syncer) nextState(fetchedAt time.Time) model.SyncState {
	t := fetchedAt.UTC().Truncate(time.Second)
	if s.cfg.Variant == config.VariantPaged {
		return model.SyncState{Date: t.Format(model.LayoutDate), Time: t.Format(model.LayoutTime)}
	}
	return model.SyncState{LastSync: t.Add(-s.cfg.SafetyWindow).Format(model.LayoutISO)}
}

func watermarkString(st model.SyncState) string {
	if st.LastSync != "" {
		return st.LastSync
	}
	return st.Date + "T" + st.Time
}
