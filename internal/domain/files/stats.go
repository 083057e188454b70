package files

import (
	"context"
	"time"
)

// weeklyWindow es de duración fija; no depende de cambios de horario.
const weeklyWindow = 7 * 24 * time.Hour

// Stats calcula, por categoría, total / weekly / expired / active.
//   - weekly: registrationDate en [now-7d, now]
//   - expired: expiryDate < now ; active: expiryDate >= now (suman total)
//
// Todas las categorías se cuentan en un mismo snapshot del repo; si una
// falla no se devuelven stats parciales.
func (s *Service) Stats(ctx context.Context) (DashboardStats, error) {
	now := s.now().UTC()
	w := StatsWindow{
		Since: normalizeTime(now.Add(-weeklyWindow)),
		Now:   normalizeTime(now),
	}

	byCat, err := s.repo.Stats(ctx, Schemas(), w)
	if err != nil {
		return DashboardStats{}, &StorageError{Op: "stats", Err: err}
	}

	return DashboardStats{
		Personal:  byCat[CategoryPersonal],
		Family:    byCat[CategoryFamily],
		Referral:  byCat[CategoryReferral],
		Emergency: byCat[CategoryEmergency],
	}, nil
}

// Tally acumula un expediente en st. Lo usan los repos que cuentan en memoria.
func Tally(st *CategoryStats, f File, w StatsWindow) {
	st.Total++
	if !f.RegistrationDate.Before(w.Since) && !f.RegistrationDate.After(w.Now) {
		st.Weekly++
	}
	if f.ExpiryDate.Before(w.Now) {
		st.Expired++
	} else {
		st.Active++
	}
}
