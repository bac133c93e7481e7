package vfs

// DefaultWorkspace builds the stock assessment filesystem: a small
// Node/Express fleet-management project under the candidate's home,
// plus enough of /etc and /var to make the usual recon commands
// interesting. Hosts that want a different world load a YAML fixture
// instead.
func DefaultWorkspace() *FS {
	fs := New()
	for _, dir := range []string{
		"/bin", "/etc", "/home/candidate", "/tmp", "/usr/bin", "/usr/local/bin",
		"/var/log", "/var/lib",
	} {
		fs.Mkdir(dir, "/", true) //nolint:errcheck
	}

	fs.WriteFile("/etc/hostname", "/", "fleetcore-dev\n")             //nolint:errcheck
	fs.WriteFile("/etc/os-release", "/", osRelease)                   //nolint:errcheck
	fs.WriteFile("/etc/passwd", "/", etcPasswd)                       //nolint:errcheck
	fs.WriteFile("/var/log/syslog", "/", "")                          //nolint:errcheck
	fs.WriteFile("/home/candidate/.bashrc", "/", "# ~/.bashrc\nexport PATH=$PATH:/usr/local/bin\n") //nolint:errcheck
	fs.WriteFile("/home/candidate/README.md", "/", assessmentReadme)  //nolint:errcheck

	proj := "/home/candidate/fleetcore"
	fs.Mkdir(proj+"/src/routes", "/", true)       //nolint:errcheck
	fs.Mkdir(proj+"/src/models", "/", true)       //nolint:errcheck
	fs.Mkdir(proj+"/tests", "/", true)            //nolint:errcheck
	fs.Mkdir(proj+"/migrations", "/", true)       //nolint:errcheck
	fs.WriteFile(proj+"/package.json", "/", packageJSON)              //nolint:errcheck
	fs.WriteFile(proj+"/docker-compose.yml", "/", dockerCompose)      //nolint:errcheck
	fs.WriteFile(proj+"/.env.example", "/", envExample)               //nolint:errcheck
	fs.WriteFile(proj+"/src/index.js", "/", indexJS)                  //nolint:errcheck
	fs.WriteFile(proj+"/src/routes/vehicles.js", "/", vehiclesJS)     //nolint:errcheck
	fs.WriteFile(proj+"/src/routes/drivers.js", "/", driversJS)       //nolint:errcheck
	fs.WriteFile(proj+"/src/models/vehicle.js", "/", vehicleModelJS)  //nolint:errcheck
	fs.WriteFile(proj+"/tests/vehicles.test.js", "/", vehiclesTestJS) //nolint:errcheck
	fs.WriteFile(proj+"/migrations/001_init.sql", "/", initSQL)       //nolint:errcheck
	fs.Symlink("fleetcore/docker-compose.yml", "/home/candidate/compose.yml", "/") //nolint:errcheck

	return fs
}

const osRelease = `PRETTY_NAME="Ubuntu 22.04.3 LTS"
NAME="Ubuntu"
VERSION_ID="22.04"
ID=ubuntu
`

const etcPasswd = `root:x:0:0:root:/root:/bin/bash
daemon:x:1:1:daemon:/usr/sbin:/usr/sbin/nologin
candidate:x:1000:1000:Candidate:/home/candidate:/bin/bash
`

const assessmentReadme = `# FleetCore Assessment Environment

The fleetcore project lives in ~/fleetcore. The API normally listens
on localhost:3000. Use 'status' to see your objectives and 'hint' if
you get stuck.
`

const packageJSON = `{
  "name": "fleetcore",
  "version": "2.4.1",
  "description": "Fleet management API",
  "main": "src/index.js",
  "scripts": {
    "dev": "nodemon src/index.js",
    "build": "babel src -d dist",
    "test": "jest",
    "lint": "eslint src/",
    "migrate": "node scripts/migrate.js",
    "seed": "node scripts/seed.js"
  },
  "dependencies": {
    "express": "^4.18.2",
    "pg": "^8.11.3",
    "redis": "^4.6.10"
  }
}
`

const dockerCompose = `version: "3.8"
services:
  api:
    build: .
    ports:
      - "3000:3000"
    depends_on:
      - db
      - cache
  db:
    image: postgres:15-alpine
    environment:
      POSTGRES_DB: fleetcore
  cache:
    image: redis:7-alpine
`

const envExample = `PORT=3000
DATABASE_URL=postgres://fleet:fleet@db:5432/fleetcore
REDIS_URL=redis://cache:6379
NODE_ENV=development
`

const indexJS = `const express = require('express');
const vehicles = require('./routes/vehicles');
const drivers = require('./routes/drivers');

const app = express();
app.use(express.json());
app.use('/api/v1/vehicles', vehicles);
app.use('/api/v1/drivers', drivers);

app.get('/health', (req, res) => res.json({ status: 'ok' }));

const port = process.env.PORT || 3000;
app.listen(port, () => console.log('fleetcore api listening on ' + port));
`

const vehiclesJS = `const router = require('express').Router();
const Vehicle = require('../models/vehicle');

router.get('/', async (req, res) => {
  const vehicles = await Vehicle.findAll();
  res.json(vehicles);
});

router.post('/', async (req, res) => {
  const vehicle = await Vehicle.create(req.body);
  res.status(201).json(vehicle);
});

module.exports = router;
`

const driversJS = `const router = require('express').Router();

router.get('/', (req, res) => {
  res.json([{ id: 1, name: 'Dana Park', license: 'CDL-A' }]);
});

module.exports = router;
`

const vehicleModelJS = `const { Pool } = require('pg');
const pool = new Pool();

module.exports = {
  findAll: () => pool.query('SELECT * FROM vehicles').then(r => r.rows),
  create: (v) =>
    pool
      .query('INSERT INTO vehicles (vin, status) VALUES ($1, $2) RETURNING *', [v.vin, v.status])
      .then(r => r.rows[0]),
};
`

const vehiclesTestJS = `const request = require('supertest');

describe('vehicles api', () => {
  it('lists vehicles', async () => {
    // TODO(assessment): make this pass
  });
});
`

const initSQL = `CREATE TABLE vehicles (
    id SERIAL PRIMARY KEY,
    vin TEXT NOT NULL UNIQUE,
    status TEXT NOT NULL DEFAULT 'idle',
    created_at TIMESTAMPTZ DEFAULT now()
);
`
