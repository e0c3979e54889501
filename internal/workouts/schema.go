package workouts

const schemaDDL = `
CREATE TABLE IF NOT EXISTS users (
  id                 INTEGER PRIMARY KEY,
  preferred_activity TEXT NOT NULL DEFAULT 'run',
  main_goal          TEXT,
  birth_date         TEXT,
  weight_kg          REAL,
  height_cm          REAL,
  current_fitness    REAL,
  fatigue            REAL,
  form               REAL,
  predicted_5k       REAL,
  predicted_10k      REAL,
  predicted_half     REAL,
  predicted_full     REAL,
  hr_zone_1          REAL,
  hr_zone_2          REAL,
  hr_zone_3          REAL,
  hr_zone_4          REAL,
  hr_zone_5          REAL
);

CREATE TABLE IF NOT EXISTS workouts (
  id                  INTEGER PRIMARY KEY,
  user_id             INTEGER NOT NULL REFERENCES users(id),
  start_time          TEXT NOT NULL,
  activity            TEXT NOT NULL DEFAULT 'other',
  duration_sec        REAL,
  distance_m          REAL,
  avg_speed_ms        REAL,
  max_speed_ms        REAL,
  avg_hr              REAL,
  max_hr              REAL,
  calories            REAL,
  elevation_gain_m    REAL,
  elevation_loss_m    REAL,
  avg_cadence         REAL,
  max_cadence         REAL,
  stride_length_m     REAL,
  training_load       REAL,
  aerobic_te          REAL,
  anaerobic_te        REAL,
  vo2max              REAL,
  zone_1_sec          REAL,
  zone_2_sec          REAL,
  zone_3_sec          REAL,
  zone_4_sec          REAL,
  zone_5_sec          REAL,
  fastest_split_1000  REAL,
  fastest_split_5000  REAL,
  fastest_split_10000 REAL
);

CREATE INDEX IF NOT EXISTS idx_workouts_user_start ON workouts (user_id, start_time DESC);

CREATE TABLE IF NOT EXISTS derived_metrics (
  user_id          INTEGER NOT NULL REFERENCES users(id),
  calculation_date TEXT NOT NULL,
  vma_kmh          REAL,
  vo2max           REAL,
  load_7d          REAL NOT NULL DEFAULT 0,
  load_28d         REAL NOT NULL DEFAULT 0,
  endurance_ratio  REAL,
  race_10k_min     REAL,
  recommendation   TEXT NOT NULL,
  created_at       TEXT NOT NULL,
  PRIMARY KEY (user_id, calculation_date)
);
`
