package engine

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/linesmerrill/police-records-api/models"
)

// Lookup serves read-only person and vehicle projections joined on cid and
// plate across reports and bolos.
type Lookup struct {
	reports *ReportRegistry
	bolos   *BoloRegistry
}

// SearchPerson returns persons whose cid or name matches query
func (l *Lookup) SearchPerson(ctx context.Context, query string) ([]models.PersonSummary, error) {
	reports, err := l.reports.all(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))

	byCID := map[int]*models.PersonSummary{}
	for _, rep := range reports {
		for _, p := range rep.Involved {
			s, ok := byCID[p.CID]
			if !ok {
				// reports are newest first, so the first name seen is the latest
				s = &models.PersonSummary{CID: p.CID, Name: p.Name}
				byCID[p.CID] = s
			}
			s.ReportCount++
		}
	}

	persons := []models.PersonSummary{}
	for _, s := range byCID {
		if query == "" || strings.Contains(strconv.Itoa(s.CID), query) || strings.Contains(strings.ToLower(s.Name), query) {
			persons = append(persons, *s)
		}
	}
	sort.Slice(persons, func(i, j int) bool { return persons[i].CID < persons[j].CID })
	return persons, nil
}

// GetPerson returns the reports and bolos referencing cid
func (l *Lookup) GetPerson(ctx context.Context, cid int) (models.Person, error) {
	if cid <= 0 {
		return models.Person{}, validationf("cid must be positive, got %d", cid)
	}
	reports, err := l.reports.all(ctx)
	if err != nil {
		return models.Person{}, err
	}
	bolos, err := l.bolos.all(ctx)
	if err != nil {
		return models.Person{}, err
	}

	person := models.Person{
		PersonSummary: models.PersonSummary{CID: cid},
		Reports:       []models.Report{},
		Bolos:         []models.Bolo{},
	}
	for _, rep := range reports {
		for _, p := range rep.Involved {
			if p.CID != cid {
				continue
			}
			if person.Name == "" {
				person.Name = p.Name
			}
			person.Reports = append(person.Reports, rep)
			break
		}
	}
	for _, b := range bolos {
		if containsInt(b.People, cid) {
			person.Bolos = append(person.Bolos, b)
		}
	}
	if len(person.Reports) == 0 && len(person.Bolos) == 0 {
		return models.Person{}, notFound("person", cid)
	}
	person.ReportCount = len(person.Reports)
	return person, nil
}

// SearchVehicle returns plates matching query across reports and bolos
func (l *Lookup) SearchVehicle(ctx context.Context, query string) ([]models.VehicleSummary, error) {
	reports, err := l.reports.all(ctx)
	if err != nil {
		return nil, err
	}
	bolos, err := l.bolos.all(ctx)
	if err != nil {
		return nil, err
	}
	query = normalizePlate(query)

	byPlate := map[string]*models.VehicleSummary{}
	get := func(plate string) *models.VehicleSummary {
		s, ok := byPlate[plate]
		if !ok {
			s = &models.VehicleSummary{Plate: plate}
			byPlate[plate] = s
		}
		return s
	}
	for _, rep := range reports {
		for _, v := range rep.Vehicles {
			get(v).ReportCount++
		}
	}
	for _, b := range bolos {
		for _, v := range b.Vehicles {
			get(v).BoloCount++
		}
	}

	vehicles := []models.VehicleSummary{}
	for plate, s := range byPlate {
		if query == "" || strings.Contains(plate, query) {
			vehicles = append(vehicles, *s)
		}
	}
	sort.Slice(vehicles, func(i, j int) bool { return vehicles[i].Plate < vehicles[j].Plate })
	return vehicles, nil
}

// GetVehicle returns the reports and bolos referencing plate
func (l *Lookup) GetVehicle(ctx context.Context, plate string) (models.Vehicle, error) {
	plate = normalizePlate(plate)
	if plate == "" {
		return models.Vehicle{}, validationf("vehicle plate is required")
	}
	reports, err := l.reports.all(ctx)
	if err != nil {
		return models.Vehicle{}, err
	}
	bolos, err := l.bolos.all(ctx)
	if err != nil {
		return models.Vehicle{}, err
	}

	vehicle := models.Vehicle{
		VehicleSummary: models.VehicleSummary{Plate: plate},
		Reports:        []models.Report{},
		Bolos:          []models.Bolo{},
	}
	for _, rep := range reports {
		if containsString(rep.Vehicles, plate) {
			vehicle.Reports = append(vehicle.Reports, rep)
		}
	}
	for _, b := range bolos {
		if containsString(b.Vehicles, plate) {
			vehicle.Bolos = append(vehicle.Bolos, b)
		}
	}
	if len(vehicle.Reports) == 0 && len(vehicle.Bolos) == 0 {
		return models.Vehicle{}, notFound("vehicle", plate)
	}
	vehicle.ReportCount = len(vehicle.Reports)
	vehicle.BoloCount = len(vehicle.Bolos)
	return vehicle, nil
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func containsString(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
