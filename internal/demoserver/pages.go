package demoserver

import (
	"html/template"
	"strings"
)

// Vehicle is one record of the demo registry.
type Vehicle struct {
	Plate string
	Make  string
	Model string
	Year  int
	Color string
	Owner string
	RUT   string
}

var vehicles = []Vehicle{
	{Plate: "AB1234", Make: "Toyota", Model: "Yaris", Year: 2015, Color: "Gris", Owner: "José Muñoz Peña", RUT: "12.345.678-5"},
	{Plate: "BBCL12", Make: "Chevrolet", Model: "Sail", Year: 2019, Color: "Blanco", Owner: "María Ñúñez Soto", RUT: "9.876.543-2"},
	{Plate: "GHKT45", Make: "Suzuki", Model: "Swift", Year: 2021, Color: "Rojo", Owner: "Andrés Vergara", RUT: "15.111.222-K"},
	{Plate: "CD5678", Make: "Nissan", Model: "V16", Year: 2009, Color: "Azul", Owner: "Inés Araya", RUT: "7.654.321-0"},
}

// normalizePlate upper-cases a plate and drops separators, so "ab-12 34"
// matches AB1234.
func normalizePlate(plate string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', ' ', '.', '·':
			return -1
		}
		return r
	}, strings.ToUpper(strings.TrimSpace(plate)))
}

// LookupVehicle returns the registry record for plate.
func LookupVehicle(plate string) (Vehicle, bool) {
	p := normalizePlate(plate)
	for _, v := range vehicles {
		if v.Plate == p {
			return v, true
		}
	}
	return Vehicle{}, false
}

type resultsPage struct {
	Query   string
	Found   bool
	Vehicle Vehicle
	Charset string
}

var resultsTmpl = template.Must(template.New("results").Parse(resultsHTML))

const resultsHTML = `<!DOCTYPE html>
<html lang="es">
<head>
    <meta charset="{{.Charset}}">
    <title>Consulta de Patentes</title>
</head>
<body>
    <h1>Consulta de Patentes</h1>
    <form method="get" action="/">
        <input type="text" name="patente" value="{{.Query}}" placeholder="AB1234">
        <button type="submit">Buscar</button>
    </form>
    {{if .Query}}
    {{if .Found}}
    <table id="resultados" class="vehiculo">
        <tr><th>Patente</th><td class="patente">{{.Vehicle.Plate}}</td></tr>
        <tr><th>Marca</th><td class="marca">{{.Vehicle.Make}}</td></tr>
        <tr><th>Modelo</th><td class="modelo">{{.Vehicle.Model}}</td></tr>
        <tr><th>Año</th><td class="anio">{{.Vehicle.Year}}</td></tr>
        <tr><th>Color</th><td class="color">{{.Vehicle.Color}}</td></tr>
        <tr><th>Propietario</th><td class="propietario">{{.Vehicle.Owner}}</td></tr>
        <tr><th>RUT</th><td class="rut">{{.Vehicle.RUT}}</td></tr>
    </table>
    {{else}}
    <p class="sin-resultados">No se encontraron resultados para {{.Query}}</p>
    {{end}}
    {{end}}
</body>
</html>`

const controlPanelHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Demo Lookup Site Control Panel</title>
    <style>
        body { font-family: system-ui, -apple-system, sans-serif; max-width: 900px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        h1 { color: #333; border-bottom: 2px solid #007bff; padding-bottom: 10px; }
        .card { background: white; border-radius: 8px; padding: 20px; margin: 15px 0; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .state { font-weight: bold; color: #28a745; }
        label { margin-right: 10px; }
        button { padding: 8px 16px; border: none; border-radius: 4px; cursor: pointer; }
        .fail-btn { background: #dc3545; color: white; }
        .reset-btn { background: #28a745; color: white; }
    </style>
</head>
<body>
    <h1>Demo Lookup Site Control Panel</h1>

    <div class="card">
        <div>Failure mode: <span class="state">{{if .Mode}}{{.Mode}}{{else}}none{{end}}</span></div>
        <div>Remaining: <span class="state">{{.Remaining}}</span> (-1 means until reset)</div>
        <div>Lookups served: <span class="state">{{.Hits}}</span></div>
    </div>

    <div class="card">
        <h2>Inject failures</h2>
        <form method="post" action="/demo/fail">
            <label>Mode
                <select name="mode">
                    <option value="status">status</option>
                    <option value="drop">drop</option>
                    <option value="slow">slow</option>
                </select>
            </label>
            <label>Status <input type="number" name="status" value="503"></label>
            <label>Count <input type="number" name="count" value="2"></label>
            <label>Delay ms <input type="number" name="delay_ms" value="5000"></label>
            <button class="fail-btn" type="submit">Inject</button>
        </form>
    </div>

    <div class="card">
        <form method="post" action="/demo/reset">
            <button class="reset-btn" type="submit">Reset</button>
        </form>
    </div>

    <div class="card">
        <h2>Known plates</h2>
        <ul>
        {{range .Plates}}<li><a href="/?patente={{.}}">{{.}}</a></li>
        {{end}}
        </ul>
    </div>
</body>
</html>`
